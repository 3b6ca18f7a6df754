package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Bootstrap    BootstrapConfig
	Analytics    AnalyticsConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret string
	// PreviousJWTSecrets are accepted for verification only, so rotating the
	// signing secret does not log out sessions issued under the old one.
	PreviousJWTSecrets    []string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// BootstrapConfig seeds an initial administrator when set.
type BootstrapConfig struct {
	AdminEmail     string
	AdminPassword  string
	AdminFirstName string
	AdminLastName  string
}

// Enabled reports whether an administrator should be seeded.
func (b BootstrapConfig) Enabled() bool {
	return b.AdminEmail != "" && b.AdminPassword != ""
}

// AnalyticsConfig controls report caching.
type AnalyticsConfig struct {
	CacheTTLSeconds int
}

// CacheTTL returns the report cache lifetime; zero disables caching.
func (a AnalyticsConfig) CacheTTL() time.Duration {
	if a.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(a.CacheTTLSeconds) * time.Second
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// ErrMissingJWTSecret is returned when no signing secret is configured.
var ErrMissingJWTSecret = errors.New("AUTH_JWT_SECRET is required")

// Load reads configuration from the environment, after merging a .env file
// when one is present. Malformed values are reported together rather than
// silently replaced by defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := &envReader{}
	cfg := &Config{
		App: AppConfig{
			Name:                  env.lookup("APP_NAME", "opsboard"),
			Env:                   env.lookup("APP_ENV", "development"),
			Host:                  env.lookup("APP_HOST", "0.0.0.0"),
			Port:                  env.lookup("APP_PORT", "8080"),
			Version:               env.lookup("APP_VERSION", "dev"),
			RequestTimeoutSeconds: env.asInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            env.lookup("POSTGRES_DSN", ""),
			MaxConns:       env.asInt32("POSTGRES_MAX_CONNS", 10),
			MinConns:       env.asInt32("POSTGRES_MIN_CONNS", 2),
			RunMigrations:  env.asBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  env.lookup("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: env.asInt32("POSTGRES_CONN_MAX_IDLE_SECONDS", 30),
			ConnMaxLifeSec: env.asInt32("POSTGRES_CONN_MAX_LIFE_SECONDS", 300),
		},
		Redis: RedisConfig{
			Addr:     env.lookup("REDIS_ADDR", "127.0.0.1:6379"),
			Password: env.lookup("REDIS_PASSWORD", ""),
			DB:       env.asInt("REDIS_DB", 0),
		},
		Logger: LoggerConfig{
			Level: env.lookup("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             strings.TrimSpace(env.lookup("AUTH_JWT_SECRET", "")),
			PreviousJWTSecrets:    env.asList("AUTH_JWT_PREVIOUS_SECRETS"),
			AccessTokenTTLMinutes: env.asInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 24*60),
			BcryptCost:            env.asInt("AUTH_BCRYPT_COST", 12),
		},
		Bootstrap: BootstrapConfig{
			AdminEmail:     env.lookup("BOOTSTRAP_ADMIN_EMAIL", ""),
			AdminPassword:  env.lookup("BOOTSTRAP_ADMIN_PASSWORD", ""),
			AdminFirstName: env.lookup("BOOTSTRAP_ADMIN_FIRST_NAME", "System"),
			AdminLastName:  env.lookup("BOOTSTRAP_ADMIN_LAST_NAME", "Administrator"),
		},
		Analytics: AnalyticsConfig{
			CacheTTLSeconds: env.asInt("ANALYTICS_CACHE_TTL_SECONDS", 60),
		},
		Notification: NotificationConfig{
			EmailFrom:  env.lookup("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: env.lookup("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	if err := errors.Join(append(env.errs, cfg.validate()...)...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() []error {
	var errs []error
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("AUTH_BCRYPT_COST must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.Auth.AccessTokenTTLMinutes <= 0 {
		errs = append(errs, errors.New("AUTH_ACCESS_TOKEN_TTL_MINUTES must be positive"))
	}
	if c.Postgres.MaxConns > 0 && c.Postgres.MinConns > c.Postgres.MaxConns {
		errs = append(errs, errors.New("POSTGRES_MIN_CONNS exceeds POSTGRES_MAX_CONNS"))
	}
	return errs
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// envReader looks up variables and collects parse failures.
type envReader struct {
	errs []error
}

func (r *envReader) lookup(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func (r *envReader) asInt(key string, fallback int) int {
	val := r.lookup(key, "")
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not an integer", key, val))
		return fallback
	}
	return parsed
}

func (r *envReader) asInt32(key string, fallback int32) int32 {
	val := r.lookup(key, "")
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(strings.TrimSpace(val), 10, 32)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not a 32-bit integer", key, val))
		return fallback
	}
	return int32(parsed)
}

func (r *envReader) asBool(key string, fallback bool) bool {
	val := r.lookup(key, "")
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not a boolean", key, val))
		return fallback
	}
	return parsed
}

func (r *envReader) asList(key string) []string {
	var out []string
	for _, part := range strings.Split(r.lookup(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
