package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/acme-ops/opsboard/pkg/util"
)

func errForbidden(action Action) error {
	return apperrors.NewDomainError(apperrors.CodeForbidden, "insufficient role", fiber.StatusForbidden, map[string]any{
		"action": string(action),
	})
}

// RequirePermission ensures the caller's role is allowed to perform action.
func RequirePermission(action Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if err := Authorize(principal.Role(), action); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures a principal was loaded.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
