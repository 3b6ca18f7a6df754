package http

import (
	"bytes"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acme-ops/opsboard/internal/api/http/handlers"
	"github.com/acme-ops/opsboard/internal/auth"
	"github.com/acme-ops/opsboard/internal/domain"
	"github.com/acme-ops/opsboard/internal/observability"
	"github.com/acme-ops/opsboard/internal/repository/memory"
	"github.com/acme-ops/opsboard/internal/service"
	apperrors "github.com/acme-ops/opsboard/pkg/util"
)

type lifecycleApp struct {
	app      *fiber.App
	store    *memory.Store
	registry *prometheus.Registry
	task     *domain.Task
	member   string
	reviewer string
}

func newLifecycleApp(t *testing.T) *lifecycleApp {
	t.Helper()
	store := memory.NewStore()
	member := store.AddUser(domain.RoleTeamMember, "Uma")
	pm := store.AddUser(domain.RoleProjectManager, "Rami")
	task := store.AddTask(member)

	tokens := auth.NewTokenManager("lifecycle-secret", nil, 60)
	memberToken, err := tokens.GenerateToken(member.ID, member.Role)
	require.NoError(t, err)
	pmToken, err := tokens.GenerateToken(pm.ID, pm.Role)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(registry), 0)
	RegisterRoutes(app, RouteConfig{
		Health:      handlers.NewHealthHandler("opsboard", "test", nil),
		Auth:        handlers.NewAuthHandler(nil),
		Users:       handlers.NewUsersHandler(nil),
		Projects:    handlers.NewProjectsHandler(nil),
		Tasks:       handlers.NewTasksHandler(nil),
		TimeEntries: handlers.NewTimeEntriesHandler(nil),
		Requests: handlers.NewRequestsHandler(service.NewRequestService(service.RequestDependencies{
			RequestRepo: store.Requests(),
			TaskRepo:    store.Tasks(),
			TxRunner:    store.TxRunner(),
		})),
		Analytics:      handlers.NewAnalyticsHandler(nil),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, store.Users()),
	})

	return &lifecycleApp{
		app:      app,
		store:    store,
		registry: registry,
		task:     task,
		member:   memberToken.Value,
		reviewer: pmToken.Value,
	}
}

func (a *lifecycleApp) do(t *testing.T, method, path, token string, payload any) (int, map[string]any) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (a *lifecycleApp) submit(t *testing.T) string {
	t.Helper()
	status, body := a.do(t, nethttp.MethodPost, "/api/requests/time-entry", a.member, map[string]any{
		"task_id":    a.task.ID,
		"start_time": "2024-01-01T09:00:00Z",
		"end_time":   "2024-01-01T17:00:00Z",
		"notes":      "schema migration",
	})
	require.Equal(t, nethttp.StatusCreated, status, body)
	created := body["data"].(map[string]any)
	assert.Equal(t, "pending", created["status"])
	return created["request_id"].(string)
}

func TestRequestsAPI_RejectStoresReviewComment(t *testing.T) {
	a := newLifecycleApp(t)
	id := a.submit(t)

	status, body := a.do(t, nethttp.MethodPost, "/api/requests/time-entry/"+id+"/reject", a.reviewer,
		map[string]any{"review_comment": "insufficient detail"})
	require.Equal(t, nethttp.StatusOK, status, body)
	rejected := body["data"].(map[string]any)
	assert.Equal(t, "rejected", rejected["status"])
	assert.Equal(t, "insufficient detail", rejected["review_comment"])

	stored, ok := a.store.Request(id)
	require.True(t, ok)
	require.NotNil(t, stored.ReviewComment)
	assert.Equal(t, "insufficient detail", *stored.ReviewComment)
	assert.Zero(t, a.store.EntriesForRequest(id))

	status, body = a.do(t, nethttp.MethodGet, "/api/requests/time-entry?status=rejected", a.reviewer, nil)
	require.Equal(t, nethttp.StatusOK, status)
	rows := body["data"].([]any)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	assert.Equal(t, id, row["request_id"])
	assert.Equal(t, "Uma", row["user_first_name"])
	assert.Equal(t, "Test", row["user_last_name"])
	assert.Equal(t, "Build", row["task_title"])
	assert.NotContains(t, row, "first_name")
}

func TestRequestsAPI_RejectWithoutBody(t *testing.T) {
	a := newLifecycleApp(t)
	id := a.submit(t)

	status, body := a.do(t, nethttp.MethodPost, "/api/requests/time-entry/"+id+"/reject", a.reviewer, nil)
	require.Equal(t, nethttp.StatusOK, status, body)
	assert.Equal(t, "", body["data"].(map[string]any)["review_comment"])
}

func TestRequestsAPI_AcceptMaterializesEntryOnce(t *testing.T) {
	a := newLifecycleApp(t)
	id := a.submit(t)

	status, body := a.do(t, nethttp.MethodPost, "/api/requests/time-entry/"+id+"/accept", a.reviewer, nil)
	require.Equal(t, nethttp.StatusOK, status, body)
	entry := body["data"].(map[string]any)
	assert.Equal(t, "8", entry["duration_hours"])
	assert.Equal(t, id, entry["source_request_id"])
	assert.Equal(t, a.task.ID, entry["task_id"])
	assert.Equal(t, "schema migration", entry["notes"])

	status, body = a.do(t, nethttp.MethodPost, "/api/requests/time-entry/"+id+"/accept", a.reviewer, nil)
	assert.Equal(t, nethttp.StatusConflict, status)
	assert.Equal(t, apperrors.CodeAlreadyProcessed, errorCode(body))
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, "accepted", details["status"])
	assert.Equal(t, entry["entry_id"], details["time_entry_id"])
	assert.Equal(t, 1, a.store.EntriesForRequest(id))
}

func TestRequestsAPI_ErrorMetricsUseRouteTemplates(t *testing.T) {
	a := newLifecycleApp(t)

	for i := 0; i < 3; i++ {
		status, _ := a.do(t, nethttp.MethodPost, "/api/requests/time-entry/"+uuid.NewString()+"/accept", a.reviewer, nil)
		require.Equal(t, nethttp.StatusNotFound, status)
		status, _ = a.do(t, nethttp.MethodGet, "/unknown/"+uuid.NewString(), "", nil)
		require.Equal(t, nethttp.StatusNotFound, status)
	}

	routes := errorRoutes(t, a.registry)
	assert.Equal(t, map[string]float64{
		"/api/requests/time-entry/:id/accept": 3,
		observability.UnmatchedRoute:          3,
	}, routes)
}

// errorRoutes sums the error counter by its route label.
func errorRoutes(t *testing.T, registry *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	out := map[string]float64{}
	for _, family := range families {
		if family.GetName() != "opsboard_http_errors_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "route" {
					out[label.GetValue()] += metric.GetCounter().GetValue()
				}
			}
		}
	}
	return out
}
