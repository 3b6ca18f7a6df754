package domain

import "time"

// RequestStatus enumerates lifecycle states for time-entry requests.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusAccepted RequestStatus = "accepted"
	RequestStatusRejected RequestStatus = "rejected"
)

// Valid reports whether s is a known request status.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusAccepted, RequestStatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s RequestStatus) Terminal() bool {
	return len(requestTransitions[s]) == 0
}

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending:  {RequestStatusAccepted, RequestStatusRejected},
	RequestStatusAccepted: {},
	RequestStatusRejected: {},
}

// CanTransition reports whether current -> next is a legal lifecycle step.
func CanTransition(current, next RequestStatus) bool {
	for _, candidate := range requestTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Request is a proposed time entry awaiting review.
type Request struct {
	ID            string
	UserID        string
	TaskID        string
	StartTime     time.Time
	EndTime       time.Time
	Notes         string
	Priority      *Priority
	Status        RequestStatus
	ReviewedBy    *string
	ReviewedAt    *time.Time
	ReviewComment *string
	CreatedAt     time.Time
}

// RequestListItem is a request joined with display names for reviewers.
type RequestListItem struct {
	Request
	SubmitterFirstName string
	SubmitterLastName  string
	TaskTitle          string
}

// Materialize copies the request's work interval into a new time entry.
func (r *Request) Materialize() *TimeEntry {
	sourceID := r.ID
	return &TimeEntry{
		UserID:          r.UserID,
		TaskID:          r.TaskID,
		StartTime:       r.StartTime,
		EndTime:         r.EndTime,
		Notes:           r.Notes,
		SourceRequestID: &sourceID,
	}
}
