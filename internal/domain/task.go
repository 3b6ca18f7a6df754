package domain

import "time"

// TaskStatus enumerates task progress states.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Priority is shared by tasks and time-entry requests.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a unit of work within a project.
type Task struct {
	ID           string
	ProjectID    string
	ProjectName  string
	Title        string
	Description  string
	AssignedTo   *string
	AssigneeName string
	Status       TaskStatus
	Priority     Priority
	DueDate      *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
