package service

import (
	"context"
	"strings"
	"time"

	"github.com/acme-ops/opsboard/internal/auth"
	"github.com/acme-ops/opsboard/internal/domain"
	"github.com/acme-ops/opsboard/internal/repository"
	apperrors "github.com/acme-ops/opsboard/pkg/util"
)

// ProjectService manages projects.
type ProjectService struct {
	projects repository.ProjectRepository
	users    repository.UserRepository
}

// NewProjectService constructs the service.
func NewProjectService(projects repository.ProjectRepository, users repository.UserRepository) *ProjectService {
	return &ProjectService{projects: projects, users: users}
}

// ProjectInput carries create and partial update fields; nil means unchanged.
type ProjectInput struct {
	Name        *string
	Description *string
	ManagerID   *string
	Status      *string
	StartDate   *time.Time
	DueDate     *time.Time
}

// ProjectListFilter narrows project listings.
type ProjectListFilter struct {
	ManagerID string
	Status    string
	Page
}

// Create adds a project.
func (s *ProjectService) Create(ctx context.Context, caller *domain.User, input ProjectInput) (*domain.Project, error) {
	if err := authorize(caller, auth.ActionProjectsCreate); err != nil {
		return nil, err
	}
	if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	project := &domain.Project{Status: domain.ProjectStatusPlanned}
	if err := s.apply(ctx, project, input); err != nil {
		return nil, err
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// List returns projects visible to any authenticated role.
func (s *ProjectService) List(ctx context.Context, caller *domain.User, filter ProjectListFilter) ([]domain.Project, error) {
	if err := authorize(caller, auth.ActionProjectsList); err != nil {
		return nil, err
	}
	repoFilter := repository.ProjectFilter{Limit: filter.Limit, Offset: filter.Offset}
	if filter.ManagerID != "" {
		repoFilter.ManagerID = &filter.ManagerID
	}
	if filter.Status != "" {
		status := domain.ProjectStatus(filter.Status)
		if !status.Valid() {
			return nil, apperrors.NewValidationError("invalid status filter", map[string]any{"status": filter.Status})
		}
		repoFilter.Status = &status
	}
	return s.projects.List(ctx, repoFilter)
}

// Get returns one project.
func (s *ProjectService) Get(ctx context.Context, caller *domain.User, id string) (*domain.Project, error) {
	if err := authorize(caller, auth.ActionProjectsRead); err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

// Update applies a partial update.
func (s *ProjectService) Update(ctx context.Context, caller *domain.User, id string, input ProjectInput) (*domain.Project, error) {
	if err := authorize(caller, auth.ActionProjectsUpdate); err != nil {
		return nil, err
	}
	project, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, project, input); err != nil {
		return nil, err
	}
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// Delete removes a project and, by cascade, its tasks.
func (s *ProjectService) Delete(ctx context.Context, caller *domain.User, id string) error {
	if err := authorize(caller, auth.ActionProjectsDelete); err != nil {
		return err
	}
	if !validID(id) {
		return apperrors.NewNotFound("project", map[string]any{"project_id": id})
	}
	return notFoundIfNoRows(s.projects.Delete(ctx, id), "project", "project_id", id)
}

func (s *ProjectService) get(ctx context.Context, id string) (*domain.Project, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFound("project", map[string]any{"project_id": id})
	}
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundIfNoRows(err, "project", "project_id", id)
	}
	return project, nil
}

func (s *ProjectService) apply(ctx context.Context, project *domain.Project, input ProjectInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return apperrors.NewValidationError("name cannot be empty", map[string]any{"field": "name"})
		}
		project.Name = name
	}
	if input.Description != nil {
		project.Description = strings.TrimSpace(*input.Description)
	}
	if input.Status != nil {
		status := domain.ProjectStatus(*input.Status)
		if !status.Valid() {
			return apperrors.NewValidationError("invalid status", map[string]any{"status": *input.Status})
		}
		project.Status = status
	}
	if input.ManagerID != nil {
		managerID := strings.TrimSpace(*input.ManagerID)
		if managerID != "" {
			if !validID(managerID) {
				return apperrors.NewNotFound("manager", map[string]any{"manager_id": managerID})
			}
			if _, err := s.users.GetByID(ctx, managerID); err != nil {
				return notFoundIfNoRows(err, "manager", "manager_id", managerID)
			}
		}
		project.ManagerID = managerID
	}
	if input.StartDate != nil {
		project.StartDate = input.StartDate
	}
	if input.DueDate != nil {
		project.DueDate = input.DueDate
	}
	if project.StartDate != nil && project.DueDate != nil && project.DueDate.Before(*project.StartDate) {
		return apperrors.NewValidationError("due_date must not be before start_date", nil)
	}
	return nil
}
