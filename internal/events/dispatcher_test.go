package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDispatcher_ContinuesAfterHandlerError(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewInMemoryDispatcher(zap.New(core))

	var calls []string
	d.Subscribe(EventRequestAccepted, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventRequestAccepted, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventRequestRejected, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{ID: "e1", Type: EventRequestAccepted})
	assert.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, calls)
	assert.Equal(t, 1, logs.FilterMessage("event handler failed").Len())
}

func TestDispatcher_RecoversHandlerPanic(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := NewInMemoryDispatcher(zap.New(core))

	delivered := false
	d.Subscribe(EventUserDeactivated, func(context.Context, Event) error {
		panic("nil map")
	})
	d.Subscribe(EventUserDeactivated, func(context.Context, Event) error {
		delivered = true
		return nil
	})

	assert.NotPanics(t, func() {
		_ = d.Publish(context.Background(), Event{ID: "e2", Type: EventUserDeactivated})
	})
	assert.True(t, delivered)
	entries := logs.FilterMessage("event handler failed").All()
	if assert.Len(t, entries, 1) {
		assert.Contains(t, entries[0].ContextMap()["error"], "nil map")
	}
}
