package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/acme-ops/opsboard/internal/api/dto"
	"github.com/acme-ops/opsboard/internal/auth"
	"github.com/acme-ops/opsboard/internal/domain"
	"github.com/acme-ops/opsboard/internal/service"
	apperrors "github.com/acme-ops/opsboard/pkg/util"
)

func caller(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.User, nil
}

func bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"reason": err.Error()})
	}
	return nil
}

func parsePage(c *fiber.Ctx) service.Page {
	return service.Page{
		Limit:  parseInt(c.Query("limit"), 0),
		Offset: parseInt(c.Query("offset"), 0),
	}
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func parseBool(val string) (*bool, error) {
	if val == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid boolean", map[string]any{"value": val})
	}
	return &b, nil
}

func parseTime(field, val string) (*time.Time, error) {
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid timestamp", map[string]any{"field": field})
	}
	return &t, nil
}

func parseDate(field string, val *string) (*time.Time, error) {
	if val == nil || *val == "" {
		return nil, nil
	}
	t, err := dto.ParseDate(*val)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid date", map[string]any{"field": field})
	}
	return &t, nil
}

func data(c *fiber.Ctx, status int, payload any) error {
	return c.Status(status).JSON(fiber.Map{"data": payload})
}
