package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/acme-ops/opsboard/internal/domain"
)

// TimeEntryRequest payload for logging or editing an entry.
type TimeEntryRequest struct {
	TaskID    string    `json:"task_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Notes     string    `json:"notes"`
}

// TimeEntryResponse is the flat time entry record. DurationHours is derived
// from the interval.
type TimeEntryResponse struct {
	ID              string          `json:"entry_id"`
	UserID          string          `json:"user_id"`
	TaskID          string          `json:"task_id"`
	StartTime       time.Time       `json:"start_time"`
	EndTime         time.Time       `json:"end_time"`
	DurationHours   decimal.Decimal `json:"duration_hours"`
	Notes           string          `json:"notes"`
	SourceRequestID *string         `json:"source_request_id"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewTimeEntryResponse maps a domain time entry.
func NewTimeEntryResponse(e *domain.TimeEntry) TimeEntryResponse {
	return TimeEntryResponse{
		ID:              e.ID,
		UserID:          e.UserID,
		TaskID:          e.TaskID,
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		DurationHours:   e.Hours(),
		Notes:           e.Notes,
		SourceRequestID: e.SourceRequestID,
		CreatedAt:       e.CreatedAt,
	}
}
