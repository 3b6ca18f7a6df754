package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/acme-ops/opsboard/internal/auth"
	"github.com/acme-ops/opsboard/internal/domain"
	"github.com/acme-ops/opsboard/internal/events"
	"github.com/acme-ops/opsboard/internal/repository"
	apperrors "github.com/acme-ops/opsboard/pkg/util"
)

// RequestService manages the time-entry request lifecycle:
// pending -> accepted (materializes a time entry) | rejected.
type RequestService struct {
	requests   repository.RequestRepository
	tasks      repository.TaskRepository
	tx         repository.ReviewTxRunner
	dispatcher events.Dispatcher
	metrics    LifecycleMetrics
	logger     *zap.Logger
}

// RequestDependencies bundles collaborators for the request service.
type RequestDependencies struct {
	RequestRepo repository.RequestRepository
	TaskRepo    repository.TaskRepository
	TxRunner    repository.ReviewTxRunner
	Dispatcher  events.Dispatcher
	Metrics     LifecycleMetrics
	Logger      *zap.Logger
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	s := &RequestService{
		requests:   deps.RequestRepo,
		tasks:      deps.TaskRepo,
		tx:         deps.TxRunner,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// SubmitRequestInput describes a proposed time entry.
type SubmitRequestInput struct {
	TaskID    string
	StartTime time.Time
	EndTime   time.Time
	Notes     string
	Priority  *domain.Priority
}

// RequestListFilter narrows reviewer listings.
type RequestListFilter struct {
	Status string
	Page
}

// Submit records a pending request. No time entry is created.
func (s *RequestService) Submit(ctx context.Context, submitter *domain.User, input SubmitRequestInput) (*domain.Request, error) {
	if err := authorize(submitter, auth.ActionRequestsSubmit); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.TaskID) == "" {
		return nil, apperrors.NewValidationError("task_id is required", map[string]any{"field": "task_id"})
	}
	if !domain.ValidInterval(input.StartTime, input.EndTime) {
		return nil, apperrors.NewInvalidInterval(map[string]any{
			"start_time": input.StartTime,
			"end_time":   input.EndTime,
		})
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
	}
	if !validID(input.TaskID) {
		return nil, apperrors.NewNotFound("task", map[string]any{"task_id": input.TaskID})
	}
	exists, err := s.tasks.Exists(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NewNotFound("task", map[string]any{"task_id": input.TaskID})
	}

	request := &domain.Request{
		UserID:    submitter.ID,
		TaskID:    input.TaskID,
		StartTime: input.StartTime,
		EndTime:   input.EndTime,
		Notes:     strings.TrimSpace(input.Notes),
		Priority:  input.Priority,
		Status:    domain.RequestStatusPending,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(string(domain.RequestStatusPending))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventRequestSubmitted,
		SubjectID: request.ID,
		Actor:     actorOf(submitter),
		Payload: events.RequestSubmittedPayload{
			SubmitterID: submitter.ID,
			TaskID:      request.TaskID,
			StartTime:   request.StartTime,
			EndTime:     request.EndTime,
		},
	})
	return request, nil
}

// List returns requests newest first, optionally filtered by status.
func (s *RequestService) List(ctx context.Context, caller *domain.User, filter RequestListFilter) ([]domain.RequestListItem, error) {
	if err := authorize(caller, auth.ActionRequestsList); err != nil {
		return nil, err
	}
	repoFilter := repository.RequestFilter{Limit: filter.Limit, Offset: filter.Offset}
	if filter.Status != "" {
		status := domain.RequestStatus(strings.ToLower(strings.TrimSpace(filter.Status)))
		if !status.Valid() {
			return nil, apperrors.NewValidationError("invalid status filter", map[string]any{"status": filter.Status})
		}
		repoFilter.Status = &status
	}
	return s.requests.List(ctx, repoFilter)
}

// Get returns a single request for a reviewer.
func (s *RequestService) Get(ctx context.Context, caller *domain.User, id string) (*domain.Request, error) {
	if err := authorize(caller, auth.ActionRequestsRead); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, apperrors.NewNotFound("request", map[string]any{"request_id": id})
	}
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundIfNoRows(err, "request", "request_id", id)
	}
	return request, nil
}

// Accept marks a pending request accepted and materializes its time entry.
// Both writes commit together or not at all.
func (s *RequestService) Accept(ctx context.Context, reviewer *domain.User, id string) (*domain.TimeEntry, error) {
	if err := authorize(reviewer, auth.ActionRequestsAccept); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, apperrors.NewNotFound("request", map[string]any{"request_id": id})
	}

	var (
		accepted *domain.Request
		entry    *domain.TimeEntry
	)
	err := s.tx.RunReview(ctx, func(requests repository.RequestRepository, entries repository.TimeEntryRepository) error {
		req, err := markReviewed(ctx, requests, entries, id, repository.ReviewDecision{
			Status:     domain.RequestStatusAccepted,
			ReviewerID: reviewer.ID,
		})
		if err != nil {
			return err
		}
		materialized := req.Materialize()
		if err := entries.Create(ctx, materialized); err != nil {
			return err
		}
		accepted, entry = req, materialized
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(string(domain.RequestStatusAccepted))
	s.logger.Info("time entry request accepted",
		zap.String("request_id", accepted.ID),
		zap.String("reviewer_id", reviewer.ID),
		zap.String("time_entry_id", entry.ID))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventRequestAccepted,
		SubjectID: accepted.ID,
		Actor:     actorOf(reviewer),
		Payload: events.RequestReviewedPayload{
			SubmitterID: accepted.UserID,
			Status:      accepted.Status,
			TimeEntryID: entry.ID,
		},
	})
	return entry, nil
}

// Reject marks a pending request rejected, storing comment verbatim.
func (s *RequestService) Reject(ctx context.Context, reviewer *domain.User, id string, comment string) (*domain.Request, error) {
	if err := authorize(reviewer, auth.ActionRequestsReject); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, apperrors.NewNotFound("request", map[string]any{"request_id": id})
	}

	var rejected *domain.Request
	err := s.tx.RunReview(ctx, func(requests repository.RequestRepository, entries repository.TimeEntryRepository) error {
		req, err := markReviewed(ctx, requests, entries, id, repository.ReviewDecision{
			Status:     domain.RequestStatusRejected,
			ReviewerID: reviewer.ID,
			Comment:    &comment,
		})
		if err != nil {
			return err
		}
		rejected = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(string(domain.RequestStatusRejected))
	s.logger.Info("time entry request rejected",
		zap.String("request_id", rejected.ID),
		zap.String("reviewer_id", reviewer.ID))
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventRequestRejected,
		SubjectID: rejected.ID,
		Actor:     actorOf(reviewer),
		Payload: events.RequestReviewedPayload{
			SubmitterID:   rejected.UserID,
			Status:        rejected.Status,
			ReviewComment: comment,
		},
	})
	return rejected, nil
}

// markReviewed applies decision with a conditional update. When no pending
// row matched, it distinguishes a missing request from one already reviewed;
// for an accepted request the conflict names the entry it produced.
func markReviewed(ctx context.Context, requests repository.RequestRepository, entries repository.TimeEntryRepository, id string, decision repository.ReviewDecision) (*domain.Request, error) {
	if !domain.CanTransition(domain.RequestStatusPending, decision.Status) {
		return nil, apperrors.NewValidationError("invalid target status", map[string]any{"status": decision.Status})
	}
	req, err := requests.MarkReviewed(ctx, id, decision)
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	existing, getErr := requests.GetByID(ctx, id)
	if getErr != nil {
		return nil, notFoundIfNoRows(getErr, "request", "request_id", id)
	}
	processed := apperrors.NewAlreadyProcessed(id, string(existing.Status))
	if existing.Status == domain.RequestStatusAccepted {
		entry, err := entries.GetBySourceRequest(ctx, id)
		switch {
		case err == nil:
			processed.WithDetail("time_entry_id", entry.ID)
		case !errors.Is(err, pgx.ErrNoRows):
			return nil, err
		}
	}
	return nil, processed
}
