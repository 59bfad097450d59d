// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIBaseURL = "https://jsonplaceholder.typicode.com"
	DefaultAPITimeout = 10 * time.Second
)

var ErrMissingSecret = errors.New("AUTH_SECRET is required")

// Config holds every setting the server and CLI read at startup.
type Config struct {
	Addr string

	APIBaseURL string
	APITimeout time.Duration
	// APIRequestsPerSecond limits outgoing remote calls. Zero disables the limit.
	APIRequestsPerSecond float64

	StoreDriver string // sqlite, postgres or memory
	DBPath      string
	DatabaseURL string

	AuthSecret   string
	AuthTokenTTL time.Duration
	AuthPopup    bool
	LoginPath    string

	TelemetryBuffer int
	AllowedOrigins  []string
}

// Load reads .env.local and .env when present, then the process environment.
// Existing environment variables win over file values.
func Load() (Config, error) {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	cfg := Config{
		Addr:                 getEnv("APP_ADDR", ":8080"),
		APIBaseURL:           strings.TrimRight(getEnv("API_BASE_URL", DefaultAPIBaseURL), "/"),
		APITimeout:           getEnvDuration("API_TIMEOUT", DefaultAPITimeout),
		APIRequestsPerSecond: getEnvFloat("API_RPS", 0),
		StoreDriver:          strings.ToLower(getEnv("STORE_DRIVER", "sqlite")),
		DBPath:               getEnv("DB_PATH", "./data/portfolio.db"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		AuthSecret:           getEnv("AUTH_SECRET", ""),
		AuthTokenTTL:         getEnvDuration("AUTH_TOKEN_TTL", 24*time.Hour),
		AuthPopup:            getEnvBool("AUTH_POPUP", true),
		LoginPath:            getEnv("LOGIN_PATH", "/login"),
		TelemetryBuffer:      getEnvInt("TELEMETRY_BUFFER", 64),
		AllowedOrigins:       splitList(getEnv("ALLOWED_ORIGINS", "")),
	}
	return cfg, cfg.Validate()
}

// Validate checks combinations that cannot work at runtime.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case "sqlite", "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("STORE_DRIVER=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive, got %s", c.APITimeout)
	}
	return nil
}

// RequireSecret is used by the server, which signs identity tokens.
func (c Config) RequireSecret() error {
	if c.AuthSecret == "" {
		return ErrMissingSecret
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
