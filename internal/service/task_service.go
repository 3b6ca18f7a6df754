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

// TaskService manages tasks. Team members only see tasks assigned to them.
type TaskService struct {
	tasks    repository.TaskRepository
	projects repository.ProjectRepository
	users    repository.UserRepository
}

// NewTaskService constructs the service.
func NewTaskService(tasks repository.TaskRepository, projects repository.ProjectRepository, users repository.UserRepository) *TaskService {
	return &TaskService{tasks: tasks, projects: projects, users: users}
}

// TaskInput carries create and partial update fields; nil means unchanged.
// An empty AssignedTo clears the assignment.
type TaskInput struct {
	ProjectID   *string
	Title       *string
	Description *string
	AssignedTo  *string
	Status      *string
	Priority    *string
	DueDate     *time.Time
}

// TaskListFilter narrows task listings.
type TaskListFilter struct {
	ProjectID  string
	AssignedTo string
	Status     string
	Priority   string
	Page
}

// Create adds a task.
func (s *TaskService) Create(ctx context.Context, caller *domain.User, input TaskInput) (*domain.Task, error) {
	if err := authorize(caller, auth.ActionTasksCreate); err != nil {
		return nil, err
	}
	if input.ProjectID == nil || strings.TrimSpace(*input.ProjectID) == "" {
		return nil, apperrors.NewValidationError("project_id is required", map[string]any{"field": "project_id"})
	}
	if input.Title == nil || strings.TrimSpace(*input.Title) == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	task := &domain.Task{Status: domain.TaskStatusPending, Priority: domain.PriorityMedium}
	if err := s.apply(ctx, task, input); err != nil {
		return nil, err
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// List returns tasks; a team member's listing is forced to their own assignments.
func (s *TaskService) List(ctx context.Context, caller *domain.User, filter TaskListFilter) ([]domain.Task, error) {
	if err := authorize(caller, auth.ActionTasksList); err != nil {
		return nil, err
	}
	repoFilter := repository.TaskFilter{Limit: filter.Limit, Offset: filter.Offset}
	if filter.ProjectID != "" {
		repoFilter.ProjectID = &filter.ProjectID
	}
	if filter.AssignedTo != "" {
		repoFilter.AssignedTo = &filter.AssignedTo
	}
	if caller.Role == domain.RoleTeamMember {
		self := caller.ID
		repoFilter.AssignedTo = &self
	}
	if filter.Status != "" {
		status := domain.TaskStatus(filter.Status)
		if !status.Valid() {
			return nil, apperrors.NewValidationError("invalid status filter", map[string]any{"status": filter.Status})
		}
		repoFilter.Status = &status
	}
	if filter.Priority != "" {
		priority := domain.Priority(filter.Priority)
		if !priority.Valid() {
			return nil, apperrors.NewValidationError("invalid priority filter", map[string]any{"priority": filter.Priority})
		}
		repoFilter.Priority = &priority
	}
	return s.tasks.List(ctx, repoFilter)
}

// Get returns one task. Team members cannot see tasks assigned to others.
func (s *TaskService) Get(ctx context.Context, caller *domain.User, id string) (*domain.Task, error) {
	if err := authorize(caller, auth.ActionTasksRead); err != nil {
		return nil, err
	}
	task, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role == domain.RoleTeamMember && (task.AssignedTo == nil || *task.AssignedTo != caller.ID) {
		return nil, apperrors.NewNotFound("task", map[string]any{"task_id": id})
	}
	return task, nil
}

// Update applies a partial update.
func (s *TaskService) Update(ctx context.Context, caller *domain.User, id string, input TaskInput) (*domain.Task, error) {
	if err := authorize(caller, auth.ActionTasksUpdate); err != nil {
		return nil, err
	}
	task, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, task, input); err != nil {
		return nil, err
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, caller *domain.User, id string) error {
	if err := authorize(caller, auth.ActionTasksDelete); err != nil {
		return err
	}
	if !validID(id) {
		return apperrors.NewNotFound("task", map[string]any{"task_id": id})
	}
	return notFoundIfNoRows(s.tasks.Delete(ctx, id), "task", "task_id", id)
}

func (s *TaskService) get(ctx context.Context, id string) (*domain.Task, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFound("task", map[string]any{"task_id": id})
	}
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundIfNoRows(err, "task", "task_id", id)
	}
	return task, nil
}

func (s *TaskService) apply(ctx context.Context, task *domain.Task, input TaskInput) error {
	if input.ProjectID != nil {
		projectID := strings.TrimSpace(*input.ProjectID)
		if !validID(projectID) {
			return apperrors.NewNotFound("project", map[string]any{"project_id": projectID})
		}
		project, err := s.projects.GetByID(ctx, projectID)
		if err != nil {
			return notFoundIfNoRows(err, "project", "project_id", projectID)
		}
		task.ProjectID = project.ID
		task.ProjectName = project.Name
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return apperrors.NewValidationError("title cannot be empty", map[string]any{"field": "title"})
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = strings.TrimSpace(*input.Description)
	}
	if input.AssignedTo != nil {
		assignee := strings.TrimSpace(*input.AssignedTo)
		if assignee == "" {
			task.AssignedTo = nil
			task.AssigneeName = ""
		} else {
			if !validID(assignee) {
				return apperrors.NewNotFound("assignee", map[string]any{"assigned_to": assignee})
			}
			user, err := s.users.GetByID(ctx, assignee)
			if err != nil {
				return notFoundIfNoRows(err, "assignee", "assigned_to", assignee)
			}
			if !user.IsActive {
				return apperrors.NewValidationError("assignee is deactivated", map[string]any{"assigned_to": assignee})
			}
			task.AssignedTo = &user.ID
			task.AssigneeName = user.FullName()
		}
	}
	if input.Status != nil {
		status := domain.TaskStatus(*input.Status)
		if !status.Valid() {
			return apperrors.NewValidationError("invalid status", map[string]any{"status": *input.Status})
		}
		task.Status = status
	}
	if input.Priority != nil {
		priority := domain.Priority(*input.Priority)
		if !priority.Valid() {
			return apperrors.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
		}
		task.Priority = priority
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	return nil
}
