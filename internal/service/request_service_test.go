package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acme-ops/opsboard/internal/domain"
	"github.com/acme-ops/opsboard/internal/events"
	"github.com/acme-ops/opsboard/internal/repository/memory"
	apperrors "github.com/acme-ops/opsboard/pkg/util"
)

type requestFixture struct {
	store    *memory.Store
	svc      *RequestService
	metrics  *recordingMetrics
	admin    *domain.User
	pm       *domain.User
	member   *domain.User
	task     *domain.Task
	received []events.Event
}

func newRequestFixture(t *testing.T) *requestFixture {
	t.Helper()
	store := memory.NewStore()
	f := &requestFixture{store: store, metrics: newRecordingMetrics()}
	f.admin = store.AddUser(domain.RoleAdministrator, "Ruth")
	f.pm = store.AddUser(domain.RoleProjectManager, "Rami")
	f.member = store.AddUser(domain.RoleTeamMember, "Uma")
	f.task = store.AddTask(f.member)

	dispatcher := events.NewInMemoryDispatcher(nil)
	var mu sync.Mutex
	record := func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		f.received = append(f.received, e)
		return nil
	}
	dispatcher.Subscribe(events.EventRequestSubmitted, record)
	dispatcher.Subscribe(events.EventRequestAccepted, record)
	dispatcher.Subscribe(events.EventRequestRejected, record)

	f.svc = NewRequestService(RequestDependencies{
		RequestRepo: store.Requests(),
		TaskRepo:    store.Tasks(),
		TxRunner:    store.TxRunner(),
		Dispatcher:  dispatcher,
		Metrics:     f.metrics,
	})
	return f
}

var (
	nineAM = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	fivePM = time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC)
)

func (f *requestFixture) submit(t *testing.T) *domain.Request {
	t.Helper()
	req, err := f.svc.Submit(context.Background(), f.member, SubmitRequestInput{
		TaskID:    f.task.ID,
		StartTime: nineAM,
		EndTime:   fivePM,
		Notes:     "  migration work ",
	})
	require.NoError(t, err)
	return req
}

func TestSubmit_CreatesPendingRequestWithoutEntry(t *testing.T) {
	f := newRequestFixture(t)
	req := f.submit(t)

	assert.Equal(t, domain.RequestStatusPending, req.Status)
	assert.Equal(t, f.member.ID, req.UserID)
	assert.Equal(t, "migration work", req.Notes)
	assert.Nil(t, req.ReviewedBy)
	assert.Zero(t, f.store.EntryCount())
	assert.Equal(t, 1, f.metrics.transitions["pending"])
	require.Len(t, f.received, 1)
	assert.Equal(t, events.EventRequestSubmitted, f.received[0].Type)
}

func TestSubmit_OnlyTeamMembers(t *testing.T) {
	f := newRequestFixture(t)
	for _, caller := range []*domain.User{f.admin, f.pm} {
		_, err := f.svc.Submit(context.Background(), caller, SubmitRequestInput{
			TaskID: f.task.ID, StartTime: nineAM, EndTime: fivePM,
		})
		assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
	}
	assert.Zero(t, f.store.RequestCount())
}

func TestSubmit_InvalidIntervalCreatesNothing(t *testing.T) {
	f := newRequestFixture(t)
	cases := []struct{ start, end time.Time }{
		{fivePM, nineAM},
		{nineAM, nineAM},
		{time.Time{}, fivePM},
	}
	for _, tc := range cases {
		_, err := f.svc.Submit(context.Background(), f.member, SubmitRequestInput{
			TaskID: f.task.ID, StartTime: tc.start, EndTime: tc.end,
		})
		assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInterval))
	}
	assert.Zero(t, f.store.RequestCount())
}

func TestSubmit_UnknownTask(t *testing.T) {
	f := newRequestFixture(t)
	_, err := f.svc.Submit(context.Background(), f.member, SubmitRequestInput{
		TaskID: uuid.NewString(), StartTime: nineAM, EndTime: fivePM,
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	_, err = f.svc.Submit(context.Background(), f.member, SubmitRequestInput{
		TaskID: "not-a-uuid", StartTime: nineAM, EndTime: fivePM,
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	assert.Zero(t, f.store.RequestCount())
}

func TestSubmit_InvalidPriority(t *testing.T) {
	f := newRequestFixture(t)
	bad := domain.Priority("urgent")
	_, err := f.svc.Submit(context.Background(), f.member, SubmitRequestInput{
		TaskID: f.task.ID, StartTime: nineAM, EndTime: fivePM, Priority: &bad,
	})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))
}

func TestAccept_MaterializesEightHourEntry(t *testing.T) {
	f := newRequestFixture(t)
	req := f.submit(t)

	entry, err := f.svc.Accept(context.Background(), f.admin, req.ID)
	require.NoError(t, err)

	assert.Equal(t, 8*time.Hour, entry.Duration())
	assert.Equal(t, "8", entry.Hours().String())
	assert.Equal(t, req.UserID, entry.UserID)
	assert.Equal(t, req.TaskID, entry.TaskID)
	assert.True(t, req.StartTime.Equal(entry.StartTime))
	assert.True(t, req.EndTime.Equal(entry.EndTime))
	assert.Equal(t, req.Notes, entry.Notes)
	require.NotNil(t, entry.SourceRequestID)
	assert.Equal(t, req.ID, *entry.SourceRequestID)

	stored := storedRequest(t, f.store, req.ID)
	assert.Equal(t, domain.RequestStatusAccepted, stored.Status)
	require.NotNil(t, stored.ReviewedBy)
	assert.Equal(t, f.admin.ID, *stored.ReviewedBy)
	assert.NotNil(t, stored.ReviewedAt)
	assert.Equal(t, 1, f.store.EntriesForRequest(req.ID))

	pending, err := f.svc.List(context.Background(), f.admin, RequestListFilter{Status: "pending"})
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = f.svc.Accept(context.Background(), f.admin, req.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeAlreadyProcessed))
	assert.Equal(t, 1, f.store.EntriesForRequest(req.ID))
	assert.Equal(t, 1, f.metrics.transitions["accepted"])
}

func TestReview_AlreadyProcessedNamesMaterializedEntry(t *testing.T) {
	f := newRequestFixture(t)
	accepted := f.submit(t)
	entry, err := f.svc.Accept(context.Background(), f.admin, accepted.ID)
	require.NoError(t, err)

	_, err = f.svc.Reject(context.Background(), f.pm, accepted.ID, "too late")
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, apperrors.CodeAlreadyProcessed, domainErr.Code)
	assert.Equal(t, "accepted", domainErr.Details["status"])
	assert.Equal(t, entry.ID, domainErr.Details["time_entry_id"])

	rejected := f.submit(t)
	_, err = f.svc.Reject(context.Background(), f.pm, rejected.ID, "")
	require.NoError(t, err)
	_, err = f.svc.Accept(context.Background(), f.admin, rejected.ID)
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "rejected", domainErr.Details["status"])
	assert.NotContains(t, domainErr.Details, "time_entry_id")
}

func TestAccept_ConcurrentCallsSucceedOnce(t *testing.T) {
	f := newRequestFixture(t)
	req := f.submit(t)

	const callers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Accept(context.Background(), f.pm, req.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case apperrors.IsCode(err, apperrors.CodeAlreadyProcessed):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, callers-1, conflicts)
	assert.Equal(t, 1, f.store.EntriesForRequest(req.ID))
}

func TestAccept_EntryFailureRollsBackStatus(t *testing.T) {
	f := newRequestFixture(t)
	req := f.submit(t)
	f.store.FailEntryCreate(errors.New("disk full"))

	_, err := f.svc.Accept(context.Background(), f.admin, req.ID)
	require.Error(t, err)

	assert.Equal(t, domain.RequestStatusPending, storedRequest(t, f.store, req.ID).Status)
	assert.Equal(t, 0, f.store.EntriesForRequest(req.ID))

	f.store.FailEntryCreate(nil)
	_, err = f.svc.Accept(context.Background(), f.admin, req.ID)
	assert.NoError(t, err)
}

func TestAccept_NotFoundDistinctFromConflict(t *testing.T) {
	f := newRequestFixture(t)
	_, err := f.svc.Accept(context.Background(), f.admin, uuid.NewString())
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	_, err = f.svc.Reject(context.Background(), f.admin, "bogus", "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestReject_StoresCommentVerbatimAndCreatesNoEntry(t *testing.T) {
	f := newRequestFixture(t)
	req := f.submit(t)

	rejected, err := f.svc.Reject(context.Background(), f.pm, req.ID, "insufficient detail")
	require.NoError(t, err)

	assert.Equal(t, domain.RequestStatusRejected, rejected.Status)
	require.NotNil(t, rejected.ReviewComment)
	assert.Equal(t, "insufficient detail", *rejected.ReviewComment)
	assert.Equal(t, f.pm.ID, *rejected.ReviewedBy)
	assert.Equal(t, 0, f.store.EntriesForRequest(req.ID))
	assert.Zero(t, f.store.EntryCount())

	_, err = f.svc.Reject(context.Background(), f.pm, req.ID, "again")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeAlreadyProcessed))
	_, err = f.svc.Accept(context.Background(), f.pm, req.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeAlreadyProcessed))
	assert.Zero(t, f.store.EntryCount())
}

func TestReviewOperations_DeniedForTeamMember(t *testing.T) {
	f := newRequestFixture(t)
	req := f.submit(t)

	_, err := f.svc.List(context.Background(), f.member, RequestListFilter{Status: "pending"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
	_, err = f.svc.Get(context.Background(), f.member, req.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
	_, err = f.svc.Accept(context.Background(), f.member, req.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
	_, err = f.svc.Reject(context.Background(), f.member, req.ID, "")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	// Denial holds regardless of state.
	_, err = f.svc.Accept(context.Background(), f.admin, req.ID)
	require.NoError(t, err)
	_, err = f.svc.Accept(context.Background(), f.member, req.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	assert.Equal(t, domain.RequestStatusAccepted, storedRequest(t, f.store, req.ID).Status)
}

func TestList_NewestFirstWithStatusFilter(t *testing.T) {
	f := newRequestFixture(t)
	first := f.submit(t)
	second := f.submit(t)
	third := f.submit(t)
	_, err := f.svc.Reject(context.Background(), f.admin, second.ID, "")
	require.NoError(t, err)

	all, err := f.svc.List(context.Background(), f.pm, RequestListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, third.ID, all[0].ID)
	assert.Equal(t, "Uma", all[0].SubmitterFirstName)
	assert.Equal(t, "Build", all[0].TaskTitle)

	pending, err := f.svc.List(context.Background(), f.pm, RequestListFilter{Status: "PENDING"})
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, third.ID, pending[0].ID)
	assert.Equal(t, first.ID, pending[1].ID)

	_, err = f.svc.List(context.Background(), f.pm, RequestListFilter{Status: "approved"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))
}

func TestTransitionTable(t *testing.T) {
	statuses := []domain.RequestStatus{domain.RequestStatusPending, domain.RequestStatusAccepted, domain.RequestStatusRejected}
	for _, from := range statuses {
		for _, to := range statuses {
			want := from == domain.RequestStatusPending && to != domain.RequestStatusPending
			assert.Equal(t, want, domain.CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.True(t, domain.RequestStatusAccepted.Terminal())
	assert.True(t, domain.RequestStatusRejected.Terminal())
	assert.False(t, domain.RequestStatusPending.Terminal())
}
