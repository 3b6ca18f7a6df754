package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acme-ops/opsboard/internal/domain"
	"github.com/acme-ops/opsboard/internal/persistence"
	"github.com/acme-ops/opsboard/internal/repository"
	apperrors "github.com/acme-ops/opsboard/pkg/util"
)

type fakeReports struct {
	runs int
	rows []map[string]any
}

func (f *fakeReports) Reports() []string { return repository.ReportNames() }

func (f *fakeReports) Run(_ context.Context, name string) ([]map[string]any, error) {
	if !repository.IsReport(name) {
		return nil, repository.ErrUnknownReport
	}
	f.runs++
	return f.rows, nil
}

type fakeCache struct {
	data   map[string][]byte
	getErr error
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	raw, ok := c.data[key]
	if !ok {
		return nil, persistence.ErrCacheMiss
	}
	return raw, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.data[key] = value
	return nil
}

func newAnalyticsFixture() (*AnalyticsService, *fakeReports, *fakeCache, *recordingMetrics) {
	reports := &fakeReports{rows: []map[string]any{{"role": "team_member", "user_count": float64(3)}}}
	cache := &fakeCache{data: map[string][]byte{}}
	metrics := newRecordingMetrics()
	svc := NewAnalyticsService(AnalyticsDependencies{
		Reports:  reports,
		Cache:    cache,
		CacheTTL: time.Minute,
		Metrics:  metrics,
	})
	return svc, reports, cache, metrics
}

func TestAnalytics_AdministratorOnly(t *testing.T) {
	svc, reports, _, _ := newAnalyticsFixture()
	for _, role := range []domain.Role{domain.RoleProjectManager, domain.RoleTeamMember} {
		caller := &domain.User{ID: "u", Role: role}
		_, err := svc.Reports(caller)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
		_, err = svc.Run(context.Background(), caller, "user-count-by-role")
		assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
	}
	assert.Zero(t, reports.runs)
}

func TestAnalytics_CachesRows(t *testing.T) {
	svc, reports, cache, metrics := newAnalyticsFixture()
	admin := &domain.User{ID: "a", Role: domain.RoleAdministrator}
	name := repository.ReportNames()[0]

	first, err := svc.Run(context.Background(), admin, name)
	require.NoError(t, err)
	second, err := svc.Run(context.Background(), admin, name)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, reports.runs)
	assert.Contains(t, cache.data, "analytics:"+name)
	assert.Equal(t, 1, metrics.lookups["miss"])
	assert.Equal(t, 1, metrics.lookups["hit"])
}

func TestAnalytics_CacheFailureFallsThrough(t *testing.T) {
	svc, reports, cache, metrics := newAnalyticsFixture()
	cache.getErr = errors.New("connection refused")
	admin := &domain.User{ID: "a", Role: domain.RoleAdministrator}
	name := repository.ReportNames()[0]

	rows, err := svc.Run(context.Background(), admin, name)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, reports.runs)
	assert.Equal(t, 1, metrics.lookups["error"])
}

func TestAnalytics_UnknownReport(t *testing.T) {
	svc, _, _, _ := newAnalyticsFixture()
	admin := &domain.User{ID: "a", Role: domain.RoleAdministrator}

	_, err := svc.Run(context.Background(), admin, "revenue-by-quarter")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	names, err := svc.Reports(admin)
	require.NoError(t, err)
	assert.Len(t, names, 30)
}
