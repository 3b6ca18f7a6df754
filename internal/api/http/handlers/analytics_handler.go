package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/acme-ops/opsboard/internal/service"
)

// AnalyticsHandler exposes the report catalog.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Reports handles GET /api/analytics.
func (h *AnalyticsHandler) Reports(c *fiber.Ctx) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	names, err := h.analytics.Reports(user)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, names)
}

// Run handles GET /api/analytics/:report.
func (h *AnalyticsHandler) Run(c *fiber.Ctx) error {
	user, err := caller(c)
	if err != nil {
		return err
	}
	rows, err := h.analytics.Run(c.UserContext(), user, c.Params("report"))
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, rows)
}
