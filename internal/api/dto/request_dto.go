package dto

import (
	"time"

	"github.com/acme-ops/opsboard/internal/domain"
)

// SubmitRequestRequest payload for POST /api/requests/time-entry.
type SubmitRequestRequest struct {
	TaskID    string           `json:"task_id"`
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time"`
	Notes     string           `json:"notes"`
	Priority  *domain.Priority `json:"priority"`
}

// RejectRequestRequest carries the optional reviewer comment.
type RejectRequestRequest struct {
	ReviewComment string `json:"review_comment"`
}

// RequestResponse is the flat request record. Submitter and task names are
// only present in listings.
type RequestResponse struct {
	ID                 string               `json:"request_id"`
	UserID             string               `json:"user_id"`
	TaskID             string               `json:"task_id"`
	StartTime          time.Time            `json:"start_time"`
	EndTime            time.Time            `json:"end_time"`
	Notes              string               `json:"notes"`
	Priority           *domain.Priority     `json:"priority"`
	Status             domain.RequestStatus `json:"status"`
	ReviewedBy         *string              `json:"reviewed_by"`
	ReviewedAt         *time.Time           `json:"reviewed_at"`
	ReviewComment      *string              `json:"review_comment"`
	CreatedAt          time.Time            `json:"created_at"`
	SubmitterFirstName string               `json:"user_first_name,omitempty"`
	SubmitterLastName  string               `json:"user_last_name,omitempty"`
	TaskTitle          string               `json:"task_title,omitempty"`
}

// NewRequestResponse maps a domain request.
func NewRequestResponse(r *domain.Request) RequestResponse {
	return RequestResponse{
		ID:            r.ID,
		UserID:        r.UserID,
		TaskID:        r.TaskID,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		Notes:         r.Notes,
		Priority:      r.Priority,
		Status:        r.Status,
		ReviewedBy:    r.ReviewedBy,
		ReviewedAt:    r.ReviewedAt,
		ReviewComment: r.ReviewComment,
		CreatedAt:     r.CreatedAt,
	}
}

// NewRequestListResponse maps a listing row.
func NewRequestListResponse(item *domain.RequestListItem) RequestResponse {
	resp := NewRequestResponse(&item.Request)
	resp.SubmitterFirstName = item.SubmitterFirstName
	resp.SubmitterLastName = item.SubmitterLastName
	resp.TaskTitle = item.TaskTitle
	return resp
}
