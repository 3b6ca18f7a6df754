package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acme-ops/opsboard/internal/domain"
	"github.com/acme-ops/opsboard/internal/repository/memory"
	apperrors "github.com/acme-ops/opsboard/pkg/util"
)

func TestTimeEntryService_OwnerScoping(t *testing.T) {
	store := memory.NewStore()
	svc := NewTimeEntryService(store.TimeEntries(), store.Tasks())
	owner := store.AddUser(domain.RoleTeamMember, "Owen")
	other := store.AddUser(domain.RoleAdministrator, "Ada")
	task := store.AddTask(owner)

	entry, err := svc.Create(context.Background(), owner, TimeEntryInput{
		TaskID: task.ID, StartTime: nineAM, EndTime: nineAM.Add(90 * time.Minute),
	})
	require.NoError(t, err)
	assert.Equal(t, "1.5", entry.Hours().String())
	assert.Nil(t, entry.SourceRequestID)

	_, err = svc.Get(context.Background(), other, entry.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	err = svc.Delete(context.Background(), other, entry.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	listed, err := svc.List(context.Background(), other, TimeEntryListFilter{})
	require.NoError(t, err)
	assert.Empty(t, listed)

	listed, err = svc.List(context.Background(), owner, TimeEntryListFilter{})
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestTimeEntryService_UpdateAndDelete(t *testing.T) {
	store := memory.NewStore()
	svc := NewTimeEntryService(store.TimeEntries(), store.Tasks())
	owner := store.AddUser(domain.RoleTeamMember, "Owen")
	task := store.AddTask(owner)

	entry, err := svc.Create(context.Background(), owner, TimeEntryInput{TaskID: task.ID, StartTime: nineAM, EndTime: fivePM})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), owner, entry.ID, TimeEntryInput{
		TaskID: task.ID, StartTime: nineAM, EndTime: nineAM.Add(time.Hour), Notes: "trimmed",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, updated.Duration())

	_, err = svc.Update(context.Background(), owner, entry.ID, TimeEntryInput{TaskID: task.ID, StartTime: fivePM, EndTime: nineAM})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInterval))

	require.NoError(t, svc.Delete(context.Background(), owner, entry.ID))
	_, err = svc.Get(context.Background(), owner, entry.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestTimeEntryService_MaterializedEntriesAreReadOnly(t *testing.T) {
	f := newRequestFixture(t)
	req := f.submit(t)
	entry, err := f.svc.Accept(context.Background(), f.admin, req.ID)
	require.NoError(t, err)

	svc := NewTimeEntryService(f.store.TimeEntries(), f.store.Tasks())

	got, err := svc.Get(context.Background(), f.member, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, *got.SourceRequestID)

	_, err = svc.Update(context.Background(), f.member, entry.ID, TimeEntryInput{
		TaskID: f.task.ID, StartTime: nineAM, EndTime: nineAM.Add(time.Hour),
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))

	err = svc.Delete(context.Background(), f.member, entry.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
	assert.Equal(t, 1, f.store.EntriesForRequest(req.ID))
}

func TestTimeEntryService_UnknownTask(t *testing.T) {
	store := memory.NewStore()
	svc := NewTimeEntryService(store.TimeEntries(), store.Tasks())
	owner := store.AddUser(domain.RoleTeamMember, "Owen")

	_, err := svc.Create(context.Background(), owner, TimeEntryInput{TaskID: uuid.NewString(), StartTime: nineAM, EndTime: fivePM})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	assert.Zero(t, store.EntryCount())
}
