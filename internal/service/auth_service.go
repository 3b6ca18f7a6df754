package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/acme-ops/opsboard/internal/auth"
	"github.com/acme-ops/opsboard/internal/config"
	"github.com/acme-ops/opsboard/internal/domain"
	"github.com/acme-ops/opsboard/internal/events"
	"github.com/acme-ops/opsboard/internal/repository"
	apperrors "github.com/acme-ops/opsboard/pkg/util"
)

// AuthService coordinates registration, login and credential changes.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	bcryptCost int
	logger     *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Tokens     *auth.TokenManager
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	tokens := deps.Tokens
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.JWTSecret, cfg.PreviousJWTSecrets, cfg.AccessTokenTTLMinutes)
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   tokens,
		dispatcher: deps.Dispatcher,
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// RegisterInput describes a self-registration.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register creates a team member account and issues a token. Elevated roles
// are only granted by an administrator afterwards.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, *domain.Token, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, nil, err
	}
	firstName := strings.TrimSpace(input.FirstName)
	if firstName == "" {
		return nil, nil, apperrors.NewValidationError("first_name is required", map[string]any{"field": "first_name"})
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return nil, nil, apperrors.NewValidationError("password must be at least 8 characters", map[string]any{"field": "password"})
	}

	user, err := s.createUser(ctx, &domain.User{
		FirstName: firstName,
		LastName:  strings.TrimSpace(input.LastName),
		Email:     email,
		Role:      domain.RoleTeamMember,
		IsActive:  true,
	}, input.Password)
	if err != nil {
		return nil, nil, err
	}

	token, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, nil, err
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:      events.EventUserRegistered,
		SubjectID: user.ID,
		Actor:     actorOf(user),
		Payload:   events.UserPayload{Email: user.Email, Role: user.Role},
	})
	return user, token, nil
}

// Login verifies credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *domain.Token, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !user.IsActive {
		return nil, nil, apperrors.NewUnauthorized("account is deactivated")
	}
	token, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, nil, err
	}
	return user, token, nil
}

// ChangePassword verifies the current password before storing the new hash.
func (s *AuthService) ChangePassword(ctx context.Context, caller *domain.User, currentPassword, newPassword string) error {
	if caller == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return apperrors.NewValidationError("password must be at least 8 characters", map[string]any{"field": "new_password"})
	}
	user, err := s.users.GetByID(ctx, caller.ID)
	if err != nil {
		return notFoundIfNoRows(err, "user", "user_id", caller.ID)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

// EnsureBootstrapAdmin creates the configured administrator when no account
// with that email exists yet.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, cfg config.BootstrapConfig) (*domain.User, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	email, err := normalizeEmail(cfg.AdminEmail)
	if err != nil {
		return nil, err
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		s.logger.Info("bootstrap administrator already present", zap.String("user_id", existing.ID))
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	user, err := s.createUser(ctx, &domain.User{
		FirstName: cfg.AdminFirstName,
		LastName:  cfg.AdminLastName,
		Email:     email,
		Role:      domain.RoleAdministrator,
		IsActive:  true,
	}, cfg.AdminPassword)
	if err != nil {
		return nil, err
	}
	s.logger.Info("bootstrap administrator created", zap.String("user_id", user.ID))
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) createUser(ctx context.Context, user *domain.User, password string) (*domain.User, error) {
	if _, err := s.users.GetByEmail(ctx, user.Email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperrors.NewValidationError("invalid email", map[string]any{"field": "email"})
	}
	return email, nil
}
