package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/acme-ops/opsboard/internal/domain"
	"github.com/acme-ops/opsboard/internal/observability"
	apperrors "github.com/acme-ops/opsboard/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller as currently stored, not as
// asserted by the token.
type Principal struct {
	User *domain.User
}

// UserID returns the caller id.
func (p *Principal) UserID() string {
	return p.User.ID
}

// Role returns the caller's stored role.
func (p *Principal) Role() domain.Role {
	return p.User.Role
}

// UserLookup resolves users by id.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	users  UserLookup
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users UserLookup) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes. The user row is
// re-read on every call so deactivation and role changes apply immediately.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return apperrors.NewTokenError(apperrors.CodeMalformedToken, "invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return tokenError(err)
	}

	user, err := m.users.GetByID(c.UserContext(), claims.UserID())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}
	if !user.IsActive {
		return apperrors.NewUnauthorized("account is deactivated")
	}

	c.Locals(principalKey, &Principal{User: user})
	c.Locals(observability.UserIDLocal, user.ID)
	return c.Next()
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return apperrors.NewTokenError(apperrors.CodeTokenExpired, "token expired")
	case errors.Is(err, ErrTokenMalformed):
		return apperrors.NewTokenError(apperrors.CodeMalformedToken, "malformed token")
	default:
		return apperrors.NewTokenError(apperrors.CodeInvalidToken, "invalid token")
	}
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal != nil && principal.User != nil
}
