package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/acme-ops/opsboard/internal/domain"
	"github.com/acme-ops/opsboard/internal/events"
	"github.com/acme-ops/opsboard/internal/repository/memory"
	apperrors "github.com/acme-ops/opsboard/pkg/util"
)

func TestUserService_AdministratorOnly(t *testing.T) {
	store := memory.NewStore()
	svc := NewUserService(store.Users(), nil, bcrypt.MinCost)
	pm := store.AddUser(domain.RoleProjectManager, "Pat")
	member := store.AddUser(domain.RoleTeamMember, "Tom")

	for _, caller := range []*domain.User{pm, member} {
		_, err := svc.List(context.Background(), caller, UserListFilter{})
		assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
		_, err = svc.Get(context.Background(), caller, member.ID)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
		err = svc.Deactivate(context.Background(), caller, member.ID)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
	}

	_, err := svc.List(context.Background(), nil, UserListFilter{})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUnauthorized))
}

func TestUserService_ListFiltersByRole(t *testing.T) {
	store := memory.NewStore()
	svc := NewUserService(store.Users(), nil, bcrypt.MinCost)
	admin := store.AddUser(domain.RoleAdministrator, "Ann")
	store.AddUser(domain.RoleTeamMember, "Tom")
	store.AddUser(domain.RoleTeamMember, "Tia")

	users, err := svc.List(context.Background(), admin, UserListFilter{Role: "team_member"})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = svc.List(context.Background(), admin, UserListFilter{Role: "superuser"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))
}

func TestUserService_UpdateRole(t *testing.T) {
	store := memory.NewStore()
	svc := NewUserService(store.Users(), nil, bcrypt.MinCost)
	admin := store.AddUser(domain.RoleAdministrator, "Ann")
	member := store.AddUser(domain.RoleTeamMember, "Tom")

	role := "Project_Manager"
	updated, err := svc.Update(context.Background(), admin, member.ID, UpdateUserInput{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleProjectManager, updated.Role)
	assert.Equal(t, domain.RoleProjectManager, storedUser(t, store, member.ID).Role)

	bogus := "owner"
	_, err = svc.Update(context.Background(), admin, member.ID, UpdateUserInput{Role: &bogus})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))

	_, err = svc.Update(context.Background(), admin, uuid.NewString(), UpdateUserInput{Role: &role})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestUserService_Deactivate(t *testing.T) {
	store := memory.NewStore()
	dispatcher := events.NewInMemoryDispatcher(nil)
	var got []events.Event
	dispatcher.Subscribe(events.EventUserDeactivated, func(_ context.Context, e events.Event) error {
		got = append(got, e)
		return nil
	})
	svc := NewUserService(store.Users(), dispatcher, bcrypt.MinCost)
	admin := store.AddUser(domain.RoleAdministrator, "Ann")
	member := store.AddUser(domain.RoleTeamMember, "Tom")

	require.NoError(t, svc.Deactivate(context.Background(), admin, member.ID))
	assert.False(t, storedUser(t, store, member.ID).IsActive)
	require.Len(t, got, 1)
	assert.Equal(t, member.ID, got[0].SubjectID)

	err := svc.Deactivate(context.Background(), admin, admin.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
	assert.True(t, storedUser(t, store, admin.ID).IsActive)

	err = svc.Deactivate(context.Background(), admin, "missing")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}
