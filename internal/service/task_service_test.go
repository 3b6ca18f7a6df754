package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acme-ops/opsboard/internal/domain"
	"github.com/acme-ops/opsboard/internal/repository/memory"
	apperrors "github.com/acme-ops/opsboard/pkg/util"
)

func strPtr(s string) *string { return &s }

func TestTaskService_TeamMemberSeesOnlyOwnTasks(t *testing.T) {
	store := memory.NewStore()
	svc := NewTaskService(store.Tasks(), store.Projects(), store.Users())
	mine := store.AddUser(domain.RoleTeamMember, "Mia")
	other := store.AddUser(domain.RoleTeamMember, "Oli")
	pm := store.AddUser(domain.RoleProjectManager, "Pat")
	myTask := store.AddTask(mine)
	otherTask := store.AddTask(other)
	store.AddTask(nil)

	tasks, err := svc.List(context.Background(), mine, TaskListFilter{AssignedTo: other.ID})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, myTask.ID, tasks[0].ID)

	_, err = svc.Get(context.Background(), mine, otherTask.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	all, err := svc.List(context.Background(), pm, TaskListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestTaskService_CreateRequiresReviewer(t *testing.T) {
	store := memory.NewStore()
	svc := NewTaskService(store.Tasks(), store.Projects(), store.Users())
	member := store.AddUser(domain.RoleTeamMember, "Mia")
	pm := store.AddUser(domain.RoleProjectManager, "Pat")
	project := store.AddTask(nil).ProjectID

	input := TaskInput{ProjectID: &project, Title: strPtr("Write docs"), AssignedTo: &member.ID}
	_, err := svc.Create(context.Background(), member, input)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	task, err := svc.Create(context.Background(), pm, input)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusPending, task.Status)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
	assert.Equal(t, member.ID, *task.AssignedTo)
	assert.Equal(t, "Mia Test", task.AssigneeName)

	updated, err := svc.Update(context.Background(), pm, task.ID, TaskInput{AssignedTo: strPtr(""), Status: strPtr("in_progress")})
	require.NoError(t, err)
	assert.Nil(t, updated.AssignedTo)
	assert.Equal(t, domain.TaskStatusInProgress, updated.Status)
}

func TestTaskService_Validation(t *testing.T) {
	store := memory.NewStore()
	svc := NewTaskService(store.Tasks(), store.Projects(), store.Users())
	admin := store.AddUser(domain.RoleAdministrator, "Ann")
	project := store.AddTask(nil).ProjectID

	_, err := svc.Create(context.Background(), admin, TaskInput{ProjectID: &project})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))

	_, err = svc.Create(context.Background(), admin, TaskInput{ProjectID: strPtr(uuid.NewString()), Title: strPtr("x")})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	_, err = svc.Create(context.Background(), admin, TaskInput{ProjectID: &project, Title: strPtr("x"), Priority: strPtr("critical")})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))

	_, err = svc.Create(context.Background(), admin, TaskInput{ProjectID: &project, Title: strPtr("x"), AssignedTo: strPtr(uuid.NewString())})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	err = svc.Delete(context.Background(), admin, uuid.NewString())
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}
