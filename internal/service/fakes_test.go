package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acme-ops/opsboard/internal/domain"
	"github.com/acme-ops/opsboard/internal/repository/memory"
)

func storedUser(t *testing.T, store *memory.Store, id string) domain.User {
	t.Helper()
	u, ok := store.User(id)
	require.True(t, ok, "user %s not stored", id)
	return u
}

func storedRequest(t *testing.T, store *memory.Store, id string) domain.Request {
	t.Helper()
	r, ok := store.Request(id)
	require.True(t, ok, "request %s not stored", id)
	return r
}

type recordingMetrics struct {
	mu          sync.Mutex
	transitions map[string]int
	lookups     map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{transitions: map[string]int{}, lookups: map[string]int{}}
}

func (m *recordingMetrics) RecordTransition(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions[status]++
}

func (m *recordingMetrics) RecordCacheLookup(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups[result]++
}
