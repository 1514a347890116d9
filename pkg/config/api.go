package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Team task scopes decide who may see and mutate team-scoped tasks.
const (
	TeamTaskScopeAny    = "any"
	TeamTaskScopeMember = "member"
)

// APIConfig holds runtime configuration for the API service.
type APIConfig struct {
	Environment string
	Addr        string
	LogLevel    string
	DatabaseURL string
	// MigrationsDir overrides the migrations embedded in the binary when set.
	MigrationsDir      string
	AutoMigrate        bool
	JWTSecret          string
	TokenTTL           time.Duration
	TeamTaskScope      string
	CORSAllowedOrigins []string
	RateLimitRedisAddr string
	RateLimitRedisPass string
	RateLimitRedisDB   int
	ShutdownTimeout    time.Duration
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:        GetString("APP_ENV", "development"),
		Addr:               GetString("API_ADDR", ":5000"),
		LogLevel:           GetString("LOG_LEVEL", "info"),
		DatabaseURL:        strings.TrimSpace(GetString("DATABASE_URL", "")),
		MigrationsDir:      strings.TrimSpace(GetString("DB_MIGRATIONS_DIR", "")),
		AutoMigrate:        GetBool("DB_AUTO_MIGRATE", true),
		JWTSecret:          GetString("JWT_SECRET", ""),
		TokenTTL:           GetDuration("JWT_EXPIRE", 7*24*time.Hour),
		TeamTaskScope:      strings.ToLower(strings.TrimSpace(GetString("TEAM_TASK_SCOPE", TeamTaskScopeAny))),
		CORSAllowedOrigins: GetList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRedisAddr: GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass: GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:   GetInt("RATE_LIMIT_REDIS_DB", 0),
		ShutdownTimeout:    GetDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// Validate reports every setting the API cannot start without.
func (c APIConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is not set"))
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("JWT_EXPIRE must be positive, got %s", c.TokenTTL))
	}
	switch c.TeamTaskScope {
	case TeamTaskScopeAny, TeamTaskScopeMember:
	default:
		errs = append(errs, fmt.Errorf("TEAM_TASK_SCOPE must be %q or %q, got %q", TeamTaskScopeAny, TeamTaskScopeMember, c.TeamTaskScope))
	}
	return errors.Join(errs...)
}
