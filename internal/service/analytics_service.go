package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/acme-ops/opsboard/internal/auth"
	"github.com/acme-ops/opsboard/internal/domain"
	"github.com/acme-ops/opsboard/internal/persistence"
	"github.com/acme-ops/opsboard/internal/repository"
	apperrors "github.com/acme-ops/opsboard/pkg/util"
)

// ReportCache stores serialized report rows.
type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// AnalyticsService runs administrator-only reports, caching rows briefly.
type AnalyticsService struct {
	reports repository.AnalyticsRepository
	cache   ReportCache
	ttl     time.Duration
	metrics CacheMetrics
	logger  *zap.Logger
}

// AnalyticsDependencies bundles collaborators for the analytics service.
type AnalyticsDependencies struct {
	Reports  repository.AnalyticsRepository
	Cache    ReportCache
	CacheTTL time.Duration
	Metrics  CacheMetrics
	Logger   *zap.Logger
}

// NewAnalyticsService constructs the service. A nil cache or zero TTL
// disables caching.
func NewAnalyticsService(deps AnalyticsDependencies) *AnalyticsService {
	s := &AnalyticsService{
		reports: deps.Reports,
		cache:   deps.Cache,
		ttl:     deps.CacheTTL,
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Reports lists the catalog.
func (s *AnalyticsService) Reports(caller *domain.User) ([]string, error) {
	if err := authorize(caller, auth.ActionAnalyticsRead); err != nil {
		return nil, err
	}
	return s.reports.Reports(), nil
}

// Run returns the rows of a named report.
func (s *AnalyticsService) Run(ctx context.Context, caller *domain.User, name string) ([]map[string]any, error) {
	if err := authorize(caller, auth.ActionAnalyticsRead); err != nil {
		return nil, err
	}
	if !repository.IsReport(name) {
		return nil, apperrors.NewNotFound("report", map[string]any{"report": name})
	}

	key := "analytics:" + name
	if rows, ok := s.fromCache(ctx, key); ok {
		return rows, nil
	}

	rows, err := s.reports.Run(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrUnknownReport) {
			return nil, apperrors.NewNotFound("report", map[string]any{"report": name})
		}
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

func (s *AnalyticsService) fromCache(ctx context.Context, key string) ([]map[string]any, bool) {
	if s.cache == nil || s.ttl <= 0 {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, persistence.ErrCacheMiss) {
			s.metrics.RecordCacheLookup("miss")
		} else {
			s.metrics.RecordCacheLookup("error")
			s.logger.Warn("analytics cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		s.metrics.RecordCacheLookup("error")
		s.logger.Warn("analytics cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	s.metrics.RecordCacheLookup("hit")
	return rows, true
}

func (s *AnalyticsService) store(ctx context.Context, key string, rows []map[string]any) {
	if s.cache == nil || s.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		s.logger.Warn("analytics rows not serializable", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		s.logger.Warn("analytics cache write failed", zap.String("key", key), zap.Error(err))
	}
}
