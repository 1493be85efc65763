// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// MinJWTSecretLength is the minimum accepted length of JWT_SECRET in bytes.
const MinJWTSecretLength = 32

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Storage backend, selected by URL scheme:
	// postgres://, postgresql://, sqlite://, file: or memory://
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Token signing secret (HS256)
	JWTSecret string `env:"JWT_SECRET,required"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Per-route sliding window limits
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimits       RateLimits

	// Upstream pokemon catalog
	CatalogBaseURL string        `env:"CATALOG_BASE_URL" envDefault:"https://pokeapi.co/api/v2"`
	CatalogTimeout time.Duration `env:"CATALOG_TIMEOUT" envDefault:"5s"`
	CatalogRPS     float64       `env:"CATALOG_RPS" envDefault:"10"`
	CatalogBurst   int           `env:"CATALOG_BURST" envDefault:"20"`
	CatalogRetries int           `env:"CATALOG_RETRIES" envDefault:"2"`

	// Password hashing
	Argon2Time    uint32 `env:"ARGON2_TIME" envDefault:"3"`
	Argon2Memory  uint32 `env:"ARGON2_MEMORY_KIB" envDefault:"65536"`
	Argon2Threads uint8  `env:"ARGON2_THREADS" envDefault:"4"`

	// CORS configuration
	// Comma-separated list of allowed origins; "*" allows any origin.
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// RateLimits holds the limit/interval pair of every rate limited route.
type RateLimits struct {
	RegisterLimit    int           `env:"RATE_LIMIT_REGISTER_LIMIT" envDefault:"5"`
	RegisterInterval time.Duration `env:"RATE_LIMIT_REGISTER_INTERVAL" envDefault:"1s"`
	LoginLimit       int           `env:"RATE_LIMIT_LOGIN_LIMIT" envDefault:"10"`
	LoginInterval    time.Duration `env:"RATE_LIMIT_LOGIN_INTERVAL" envDefault:"1s"`
	CatchLimit       int           `env:"RATE_LIMIT_CATCH_LIMIT" envDefault:"10"`
	CatchInterval    time.Duration `env:"RATE_LIMIT_CATCH_INTERVAL" envDefault:"1s"`
	ReleaseLimit     int           `env:"RATE_LIMIT_RELEASE_LIMIT" envDefault:"5"`
	ReleaseInterval  time.Duration `env:"RATE_LIMIT_RELEASE_INTERVAL" envDefault:"1s"`
	CaughtLimit      int           `env:"RATE_LIMIT_CAUGHT_LIMIT" envDefault:"10"`
	CaughtInterval   time.Duration `env:"RATE_LIMIT_CAUGHT_INTERVAL" envDefault:"1s"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks values that env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if len(c.JWTSecret) < MinJWTSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", MinJWTSecretLength))
	}

	pairs := []struct {
		name     string
		limit    int
		interval time.Duration
	}{
		{"REGISTER", c.RateLimits.RegisterLimit, c.RateLimits.RegisterInterval},
		{"LOGIN", c.RateLimits.LoginLimit, c.RateLimits.LoginInterval},
		{"CATCH", c.RateLimits.CatchLimit, c.RateLimits.CatchInterval},
		{"RELEASE", c.RateLimits.ReleaseLimit, c.RateLimits.ReleaseInterval},
		{"CAUGHT", c.RateLimits.CaughtLimit, c.RateLimits.CaughtInterval},
	}
	for _, p := range pairs {
		if p.limit <= 0 {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_%s_LIMIT must be positive", p.name))
		}
		if p.interval <= 0 {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_%s_INTERVAL must be positive", p.name))
		}
	}

	if c.CatalogRPS <= 0 || c.CatalogBurst <= 0 {
		errs = append(errs, errors.New("CATALOG_RPS and CATALOG_BURST must be positive"))
	}
	if c.CatalogRetries < 0 {
		errs = append(errs, errors.New("CATALOG_RETRIES must not be negative"))
	}

	return errors.Join(errs...)
}

// Load parses environment variables and returns a validated Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
