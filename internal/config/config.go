// Package config loads and validates all environment variables at startup.
// Every other package receives typed values — nothing reads os.Getenv
// directly.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the fully-parsed application configuration.
type Config struct {
	// ── Server ────────────────────────────────────────────────────────────────
	Port string // default "8080"
	Env  string // "development" | "staging" | "production"

	// ── Groq ──────────────────────────────────────────────────────────────────
	// Optional. When GROQ_API_KEY is empty the service runs in fallback-only
	// mode for the lifetime of the process: every request is answered by the
	// rule engine and no outbound call is ever made.
	GroqAPIKey  string
	GroqModel   string // default "llama-3.3-70b-versatile"
	GroqBaseURL string // default is the public Groq endpoint

	// ── HTTP ──────────────────────────────────────────────────────────────────
	RequestTimeout time.Duration // per-request handler deadline, default 90s
	BatchLimit     int           // max concurrent analyses per batch call, default 4
}

// Load reads all environment variables and returns a validated Config.
// A .env file in the working directory is loaded first when present, so
// plain `go run ./cmd/api` works in development; real environment variables
// always take precedence because godotenv never overwrites existing keys.
func Load() (*Config, error) {
	_ = godotenv.Load() // missing file is fine

	c := &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		GroqAPIKey:     os.Getenv("GROQ_API_KEY"),
		GroqModel:      getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		GroqBaseURL:    getEnv("GROQ_BASE_URL", ""),
		RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 90*time.Second),
		BatchLimit:     getEnvAsInt("BATCH_LIMIT", 4),
	}

	return c, c.validate()
}

// FallbackOnly reports whether the process runs without an external analysis
// client. Decided once at startup, never per request.
func (c *Config) FallbackOnly() bool {
	return c.GroqAPIKey == ""
}

func (c *Config) validate() error {
	var errs []error

	if c.BatchLimit < 1 {
		errs = append(errs, fmt.Errorf("BATCH_LIMIT must be >= 1, got %d", c.BatchLimit))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout))
	}

	return errors.Join(errs...)
}

// ─── HELPERS ─────────────────────────────────────────────────────────────────

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	// Plain integers are treated as seconds.
	if value, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(value) * time.Second
	}
	// Fall back to Go duration syntax: "30s", "5m", "1h", etc.
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	return defaultValue
}
