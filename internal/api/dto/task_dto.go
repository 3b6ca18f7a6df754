package dto

import (
	"time"

	"github.com/acme-ops/opsboard/internal/domain"
)

// TaskRequest is used for create and partial update. An empty assigned_to
// clears the assignment.
type TaskRequest struct {
	ProjectID   *string `json:"project_id"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	AssignedTo  *string `json:"assigned_to"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"due_date"`
}

// TaskResponse is the flat task record.
type TaskResponse struct {
	ID           string            `json:"task_id"`
	ProjectID    string            `json:"project_id"`
	ProjectName  string            `json:"project_name,omitempty"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	AssignedTo   *string           `json:"assigned_to"`
	AssigneeName string            `json:"assignee_name,omitempty"`
	Status       domain.TaskStatus `json:"status"`
	Priority     domain.Priority   `json:"priority"`
	DueDate      *string           `json:"due_date"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// NewTaskResponse maps a domain task.
func NewTaskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:           t.ID,
		ProjectID:    t.ProjectID,
		ProjectName:  t.ProjectName,
		Title:        t.Title,
		Description:  t.Description,
		AssignedTo:   t.AssignedTo,
		AssigneeName: t.AssigneeName,
		Status:       t.Status,
		Priority:     t.Priority,
		DueDate:      FormatDate(t.DueDate),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}
