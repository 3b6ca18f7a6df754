package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	httpRequestsTotalName     = "opsboard_http_requests_total"
	httpRequestDurationName   = "opsboard_http_request_duration_seconds"
	httpErrorsTotalName       = "opsboard_http_errors_total"
	requestTransitionsName    = "opsboard_time_entry_request_transitions_total"
	analyticsCacheLookupsName = "opsboard_analytics_cache_lookups_total"
)

// Metrics holds the prometheus collectors used by the service.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
}

// NewMetrics registers collectors against r.
func NewMetrics(r prometheus.Registerer) *Metrics {
	return &Metrics{
		requests: promauto.With(r).NewCounterVec(
			prometheus.CounterOpts{
				Name: httpRequestsTotalName,
				Help: "Total number of HTTP requests by route, method and status.",
			},
			[]string{"route", "method", "status"},
		),
		requestDuration: promauto.With(r).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    httpRequestDurationName,
				Help:    "HTTP request latency by route and method.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		errors: promauto.With(r).NewCounterVec(
			prometheus.CounterOpts{
				Name: httpErrorsTotalName,
				Help: "Total number of error responses by route, method and error code.",
			},
			[]string{"route", "method", "code"},
		),
		transitions: promauto.With(r).NewCounterVec(
			prometheus.CounterOpts{
				Name: requestTransitionsName,
				Help: "Time-entry request lifecycle transitions by resulting status.",
			},
			[]string{"status"},
		),
		cacheLookups: promauto.With(r).NewCounterVec(
			prometheus.CounterOpts{
				Name: analyticsCacheLookupsName,
				Help: "Analytics report cache lookups by result (hit, miss, error).",
			},
			[]string{"result"},
		),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordTransition counts a request entering status.
func (m *Metrics) RecordTransition(status string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(status).Inc()
}

// RecordCacheLookup counts an analytics cache lookup outcome.
func (m *Metrics) RecordCacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
