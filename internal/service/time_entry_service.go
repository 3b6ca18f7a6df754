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

// TimeEntryService manages a caller's own time entries. Entries that were
// materialized from an accepted request are read-only.
type TimeEntryService struct {
	entries repository.TimeEntryRepository
	tasks   repository.TaskRepository
}

// NewTimeEntryService constructs the service.
func NewTimeEntryService(entries repository.TimeEntryRepository, tasks repository.TaskRepository) *TimeEntryService {
	return &TimeEntryService{entries: entries, tasks: tasks}
}

// TimeEntryInput describes a logged interval.
type TimeEntryInput struct {
	TaskID    string
	StartTime time.Time
	EndTime   time.Time
	Notes     string
}

// TimeEntryListFilter narrows the caller's entries.
type TimeEntryListFilter struct {
	TaskID string
	From   *time.Time
	To     *time.Time
	Page
}

// Create logs an entry owned by the caller.
func (s *TimeEntryService) Create(ctx context.Context, caller *domain.User, input TimeEntryInput) (*domain.TimeEntry, error) {
	if err := authorize(caller, auth.ActionTimeEntriesCreate); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}
	entry := &domain.TimeEntry{
		UserID:    caller.ID,
		TaskID:    input.TaskID,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		Notes:     strings.TrimSpace(input.Notes),
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns the caller's entries, newest first.
func (s *TimeEntryService) List(ctx context.Context, caller *domain.User, filter TimeEntryListFilter) ([]domain.TimeEntry, error) {
	if err := authorize(caller, auth.ActionTimeEntriesList); err != nil {
		return nil, err
	}
	repoFilter := repository.TimeEntryFilter{
		UserID: caller.ID,
		From:   filter.From,
		To:     filter.To,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	if filter.TaskID != "" {
		repoFilter.TaskID = &filter.TaskID
	}
	return s.entries.List(ctx, repoFilter)
}

// Get returns one of the caller's entries.
func (s *TimeEntryService) Get(ctx context.Context, caller *domain.User, id string) (*domain.TimeEntry, error) {
	if err := authorize(caller, auth.ActionTimeEntriesRead); err != nil {
		return nil, err
	}
	return s.owned(ctx, caller, id)
}

// Update replaces the interval, task and notes of a manually logged entry.
func (s *TimeEntryService) Update(ctx context.Context, caller *domain.User, id string, input TimeEntryInput) (*domain.TimeEntry, error) {
	if err := authorize(caller, auth.ActionTimeEntriesUpdate); err != nil {
		return nil, err
	}
	entry, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if entry.SourceRequestID != nil {
		return nil, errApprovedEntry(entry)
	}
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}
	entry.TaskID = input.TaskID
	entry.StartTime = input.StartTime
	entry.EndTime = input.EndTime
	entry.Notes = strings.TrimSpace(input.Notes)
	if err := s.entries.Update(ctx, entry); err != nil {
		return nil, notFoundIfNoRows(err, "time entry", "entry_id", id)
	}
	return entry, nil
}

// Delete removes a manually logged entry.
func (s *TimeEntryService) Delete(ctx context.Context, caller *domain.User, id string) error {
	if err := authorize(caller, auth.ActionTimeEntriesDelete); err != nil {
		return err
	}
	entry, err := s.owned(ctx, caller, id)
	if err != nil {
		return err
	}
	if entry.SourceRequestID != nil {
		return errApprovedEntry(entry)
	}
	return notFoundIfNoRows(s.entries.Delete(ctx, id, caller.ID), "time entry", "entry_id", id)
}

// owned hides entries of other users behind not found.
func (s *TimeEntryService) owned(ctx context.Context, caller *domain.User, id string) (*domain.TimeEntry, error) {
	if !validID(id) {
		return nil, apperrors.NewNotFound("time entry", map[string]any{"entry_id": id})
	}
	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundIfNoRows(err, "time entry", "entry_id", id)
	}
	if entry.UserID != caller.ID {
		return nil, apperrors.NewNotFound("time entry", map[string]any{"entry_id": id})
	}
	return entry, nil
}

func (s *TimeEntryService) validate(ctx context.Context, input TimeEntryInput) error {
	if strings.TrimSpace(input.TaskID) == "" {
		return apperrors.NewValidationError("task_id is required", map[string]any{"field": "task_id"})
	}
	if !domain.ValidInterval(input.StartTime, input.EndTime) {
		return apperrors.NewInvalidInterval(map[string]any{
			"start_time": input.StartTime,
			"end_time":   input.EndTime,
		})
	}
	if !validID(input.TaskID) {
		return apperrors.NewNotFound("task", map[string]any{"task_id": input.TaskID})
	}
	exists, err := s.tasks.Exists(ctx, input.TaskID)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NewNotFound("task", map[string]any{"task_id": input.TaskID})
	}
	return nil
}

func errApprovedEntry(entry *domain.TimeEntry) error {
	return apperrors.NewConflict("time entry was materialized from an accepted request", map[string]any{
		"entry_id":          entry.ID,
		"source_request_id": *entry.SourceRequestID,
	})
}
