package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/acme-ops/opsboard/internal/auth"
	"github.com/acme-ops/opsboard/internal/domain"
	"github.com/acme-ops/opsboard/internal/events"
	apperrors "github.com/acme-ops/opsboard/pkg/util"
)

// LifecycleMetrics counts request state transitions.
type LifecycleMetrics interface {
	RecordTransition(status string)
}

// CacheMetrics counts analytics cache outcomes.
type CacheMetrics interface {
	RecordCacheLookup(result string)
}

type noopMetrics struct{}

func (noopMetrics) RecordTransition(string)  {}
func (noopMetrics) RecordCacheLookup(string) {}

// Page bounds list results.
type Page struct {
	Limit  int
	Offset int
}

func authorize(caller *domain.User, action auth.Action) error {
	if caller == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	return auth.Authorize(caller.Role, action)
}

// validID reports whether id is a well-formed UUID. Malformed ids cannot
// exist, so callers treat them as not found.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func notFoundIfNoRows(err error, resource, idKey, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, map[string]any{idKey: id})
	}
	return err
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func actorOf(user *domain.User) events.Actor {
	return events.Actor{UserID: user.ID, Role: user.Role}
}
