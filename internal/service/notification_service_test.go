package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/acme-ops/opsboard/internal/config"
	"github.com/acme-ops/opsboard/internal/domain"
	"github.com/acme-ops/opsboard/internal/events"
)

func TestNotificationService_LogsLifecycleEvents(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher(nil)
	ns := NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{EmailFrom: "ops@example.com"})
	ns.RegisterHandlers()

	_ = dispatcher.Publish(context.Background(), events.Event{
		Type:      events.EventRequestRejected,
		SubjectID: "req-1",
		Actor:     events.Actor{UserID: "rev-1", Role: domain.RoleProjectManager},
		Payload:   events.RequestReviewedPayload{SubmitterID: "sub-1", Status: domain.RequestStatusRejected, ReviewComment: "no"},
	})

	assert.Equal(t, 1, logs.FilterMessage("RequestReviewed").Len())
	assert.Equal(t, 1, logs.FilterMessage("email notification queued").Len())
	assert.Zero(t, logs.FilterMessage("webhook notification queued").Len())

	entry := logs.FilterMessage("RequestReviewed").All()[0]
	assert.Equal(t, "req-1", entry.ContextMap()["request_id"])
	assert.Equal(t, "rev-1", entry.ContextMap()["reviewer_id"])
}

func TestNotificationService_RoutesByEventType(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	dispatcher := events.NewInMemoryDispatcher(nil)
	ns := NewNotificationService(dispatcher, zap.New(core), config.NotificationConfig{
		EmailFrom:  "ops@example.com",
		WebhookURL: "https://hooks.example.com/opsboard",
	})
	ns.RegisterHandlers()

	ctx := context.Background()
	_ = dispatcher.Publish(ctx, events.Event{Type: events.EventRequestSubmitted, SubjectID: "req-2", Actor: events.Actor{UserID: "sub-2"}})
	_ = dispatcher.Publish(ctx, events.Event{Type: events.EventUserDeactivated, SubjectID: "user-9", Actor: events.Actor{UserID: "admin-1"}})

	submitted := logs.FilterMessage("RequestSubmitted").All()
	if assert.Len(t, submitted, 1) {
		assert.Equal(t, "sub-2", submitted[0].ContextMap()["submitter_id"])
	}
	userEvents := logs.FilterMessage("UserEvent").All()
	if assert.Len(t, userEvents, 1) {
		assert.Equal(t, "user-9", userEvents[0].ContextMap()["user_id"])
	}

	// Submissions go to reviewers by webhook only; user events are log-only.
	assert.Equal(t, 1, logs.FilterMessage("webhook notification queued").Len())
	assert.Zero(t, logs.FilterMessage("email notification queued").Len())
}
