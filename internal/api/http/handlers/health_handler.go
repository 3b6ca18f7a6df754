package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/acme-ops/opsboard/pkg/util"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the unauthenticated probe endpoints.
type HealthHandler struct {
	service string
	version string
	deps    map[string]Pinger
}

func NewHealthHandler(service, version string, deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{service: service, version: version, deps: deps}
}

// Live answers as long as the process can serve HTTP.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive", "service": h.service, "version": h.version})
}

// Ready pings every dependency in parallel and fails with 503 when any of
// them is down.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	checks := h.check(ctx)
	for _, status := range checks {
		if status != "ok" {
			return apperrors.NewUnavailable(checks)
		}
	}
	return c.JSON(fiber.Map{"status": "ready", "dependencies": checks})
}

// check never fails fast: every dependency reports, and a failed ping is
// recorded as its error text.
func (h *HealthHandler) check(ctx context.Context) map[string]any {
	var (
		mu     sync.Mutex
		g      errgroup.Group
		result = make(map[string]any, len(h.deps))
	)
	for name, dep := range h.deps {
		g.Go(func() error {
			status := "ok"
			if err := dep.Ping(ctx); err != nil {
				status = err.Error()
			}
			mu.Lock()
			result[name] = status
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return result
}
