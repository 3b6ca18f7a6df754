package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserIDLocal is the fiber local under which the auth middleware stores the caller id.
const UserIDLocal = "auth_user_id"

// UnmatchedRoute labels requests that no registered route claimed.
const UnmatchedRoute = "unmatched"

const unmatchedLocal = "route_unmatched"

// NotFound terminates the chain for requests no route claimed. Register it
// last.
func NotFound(c *fiber.Ctx) error {
	c.Locals(unmatchedLocal, true)
	return fiber.NewError(fiber.StatusNotFound, "Cannot "+c.Method()+" "+c.Path())
}

// RouteLabel returns the route template serving c, never the raw path, so
// ids and unknown URLs do not become metric series.
func RouteLabel(c *fiber.Ctx) string {
	if unmatched, _ := c.Locals(unmatchedLocal).(bool); unmatched {
		return UnmatchedRoute
	}
	if r := c.Route(); r != nil && r.Path != "" {
		return r.Path
	}
	return UnmatchedRoute
}

// RequestLogger logs each request and records it in metrics.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		route := RouteLabel(c)
		status := c.Response().StatusCode()
		metrics.RecordRequest(route, c.Method(), status, elapsed)

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
		}
		if userID, ok := c.Locals(UserIDLocal).(string); ok && userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		logger.Info("request", fields...)
		return err
	}
}
