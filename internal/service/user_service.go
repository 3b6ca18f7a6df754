package service

import (
	"context"
	"strings"

	"github.com/acme-ops/opsboard/internal/auth"
	"github.com/acme-ops/opsboard/internal/domain"
	"github.com/acme-ops/opsboard/internal/events"
	"github.com/acme-ops/opsboard/internal/repository"
	apperrors "github.com/acme-ops/opsboard/pkg/util"
)

// UserService implements administrator user management.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	bcryptCost int
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, dispatcher events.Dispatcher, bcryptCost int) *UserService {
	return &UserService{users: users, dispatcher: dispatcher, bcryptCost: bcryptCost}
}

// UserListFilter narrows user listings.
type UserListFilter struct {
	Role     string
	IsActive *bool
	Page
}

// UpdateUserInput lists the fields an administrator may change.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Role      *string
	IsActive  *bool
	Password  *string
}

// List returns users.
func (s *UserService) List(ctx context.Context, caller *domain.User, filter UserListFilter) ([]domain.User, error) {
	if err := authorize(caller, auth.ActionUsersList); err != nil {
		return nil, err
	}
	repoFilter := repository.UserFilter{IsActive: filter.IsActive, Limit: filter.Limit, Offset: filter.Offset}
	if filter.Role != "" {
		role, ok := domain.ParseRole(filter.Role)
		if !ok {
			return nil, apperrors.NewValidationError("invalid role filter", map[string]any{"role": filter.Role})
		}
		repoFilter.Role = &role
	}
	return s.users.List(ctx, repoFilter)
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, caller *domain.User, id string) (*domain.User, error) {
	if err := authorize(caller, auth.ActionUsersRead); err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

// Update applies whitelisted changes.
func (s *UserService) Update(ctx context.Context, caller *domain.User, id string, input UpdateUserInput) (*domain.User, error) {
	if err := authorize(caller, auth.ActionUsersUpdate); err != nil {
		return nil, err
	}
	user, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		name := strings.TrimSpace(*input.FirstName)
		if name == "" {
			return nil, apperrors.NewValidationError("first_name cannot be empty", map[string]any{"field": "first_name"})
		}
		user.FirstName = name
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Role != nil {
		role, ok := domain.ParseRole(*input.Role)
		if !ok {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": *input.Role})
		}
		user.Role = role
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.Password != nil {
		if err := auth.ValidatePassword(*input.Password); err != nil {
			return nil, apperrors.NewValidationError("password must be at least 8 characters", map[string]any{"field": "password"})
		}
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Deactivate soft-deletes a user; subsequent requests with their token fail.
func (s *UserService) Deactivate(ctx context.Context, caller *domain.User, id string) error {
	if err := authorize(caller, auth.ActionUsersDeactivate); err != nil {
		return err
	}
	if caller.ID == id {
		return apperrors.NewConflict("administrators cannot deactivate themselves", map[string]any{"user_id": id})
	}
	if !validID(id) {
		return apperrors.NewNotFound("user", map[string]any{"user_id": id})
	}
	if err := s.users.Deactivate(ctx, id); err != nil {
		return notFoundIfNoRows(err, "user", "user_id", id)
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventUserDeactivated,
		SubjectID: id,
		Actor:     actorOf(caller),
	})
	return nil
}

func (s *UserService) get(ctx context.Context, id string) (*domain.User, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundIfNoRows(err, "user", "user_id", id)
	}
	return user, nil
}
