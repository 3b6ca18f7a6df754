package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/acme-ops/opsboard/internal/domain"
)

// Verification failures returned by ParseToken.
var (
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token invalid")
)

const defaultTokenTTL = 24 * time.Hour

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret   []byte
	previous [][]byte
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenManager builds a new manager. previous secrets are only used to
// verify tokens issued before a rotation.
func NewTokenManager(secret string, previous []string, ttlMinutes int) *TokenManager {
	ttl := defaultTokenTTL
	if ttlMinutes > 0 {
		ttl = time.Duration(ttlMinutes) * time.Minute
	}
	tm := &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, s := range previous {
		if s != "" && s != secret {
			tm.previous = append(tm.previous, []byte(s))
		}
	}
	return tm
}

// Claims describes JWT payload.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *Claims) UserID() string {
	return c.Subject
}

// GenerateToken builds and signs a JWT asserting (userID, role).
func (tm *TokenManager) GenerateToken(userID string, role domain.Role) (*domain.Token, error) {
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(tm.ttl)
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return nil, err
	}
	return &domain.Token{
		Value:     signed,
		UserID:    userID,
		Role:      role,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// ParseToken validates the signature and expiry and returns claims.
// Errors are always one of ErrTokenMalformed, ErrTokenExpired or ErrTokenInvalid.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	claims, err := tm.parseWith(tokenStr, tm.secret)
	if errors.Is(err, ErrTokenInvalid) {
		for _, secret := range tm.previous {
			if c, perr := tm.parseWith(tokenStr, secret); perr == nil {
				return c, nil
			} else if !errors.Is(perr, ErrTokenInvalid) {
				return nil, perr
			}
		}
	}
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (tm *TokenManager) parseWith(tokenStr string, secret []byte) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrTokenInvalid
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
