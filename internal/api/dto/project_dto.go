package dto

import (
	"time"

	"github.com/acme-ops/opsboard/internal/domain"
)

// ProjectRequest is used for create and partial update.
type ProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ManagerID   *string `json:"manager_id"`
	Status      *string `json:"status"`
	StartDate   *string `json:"start_date"`
	DueDate     *string `json:"due_date"`
}

// ProjectResponse is the flat project record.
type ProjectResponse struct {
	ID          string               `json:"project_id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	ManagerID   *string              `json:"manager_id"`
	ManagerName string               `json:"manager_name,omitempty"`
	Status      domain.ProjectStatus `json:"status"`
	StartDate   *string              `json:"start_date"`
	DueDate     *string              `json:"due_date"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// NewProjectResponse maps a domain project.
func NewProjectResponse(p *domain.Project) ProjectResponse {
	resp := ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ManagerName: p.ManagerName,
		Status:      p.Status,
		StartDate:   FormatDate(p.StartDate),
		DueDate:     FormatDate(p.DueDate),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.ManagerID != "" {
		id := p.ManagerID
		resp.ManagerID = &id
	}
	return resp
}
