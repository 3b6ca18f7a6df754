package events

import (
	"time"

	"github.com/acme-ops/opsboard/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRequestSubmitted EventType = "request_submitted"
	EventRequestAccepted  EventType = "request_accepted"
	EventRequestRejected  EventType = "request_rejected"
	EventUserRegistered   EventType = "user_registered"
	EventUserDeactivated  EventType = "user_deactivated"
)

// Actor identifies who caused an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RequestSubmittedPayload payload.
type RequestSubmittedPayload struct {
	SubmitterID string    `json:"submitter_id"`
	TaskID      string    `json:"task_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

// RequestReviewedPayload is carried by accepted and rejected events.
type RequestReviewedPayload struct {
	SubmitterID   string               `json:"submitter_id"`
	Status        domain.RequestStatus `json:"status"`
	TimeEntryID   string               `json:"time_entry_id,omitempty"`
	ReviewComment string               `json:"review_comment,omitempty"`
}

// UserPayload payload.
type UserPayload struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}
