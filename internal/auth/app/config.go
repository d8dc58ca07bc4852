package app

import (
	"os"
	"strconv"
	"time"

	"github.com/arkrose/doorman/internal/auth/session"
	"github.com/arkrose/doorman/pkg/jwtx"
	"github.com/arkrose/doorman/pkg/totpx"
)

type Config struct {
	Issuer       string // Issuer claim for session tokens and the authenticator app label
	DatabaseFile string // Path to SQLite database file (default: ./doorman.db)
	PepperFile   string // Path to file containing pepper for password hashing (default: ./pepper)
	SigningKey   string // Path to Ed25519 signing key PEM, generated on first run (default: ./signing.pem)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
	Port      int    // HTTP server port (default: 8080)

	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Pending session sweep interval (default: 1m)
	PendingSessionTTL    time.Duration // How long a login may wait for its code (default: 5m)
	SessionTTL           time.Duration // Lifetime of issued session tokens (default: 1h)
	CodeWindow           uint          // Accepted TOTP step skew (default: 1)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:       getEnvOrDefault("DOORMAN_ISSUER", "doorman"),
		DatabaseFile: getEnvOrDefault("DOORMAN_DATABASE_FILE", "doorman.db"),
		PepperFile:   getEnvOrDefault("DOORMAN_PEPPER_FILE", "pepper"),
		SigningKey:   getEnvOrDefault("DOORMAN_SIGNING_KEY", "signing.pem"),

		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
		Port:      getEnvIntOrDefault("PORT", 8080),

		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Minute),
		PendingSessionTTL:    getEnvDurationOrDefault("PENDING_SESSION_TTL", session.DefaultTTL),
		SessionTTL:           getEnvDurationOrDefault("SESSION_TTL", jwtx.DefaultSessionTTL),
		CodeWindow:           totpx.DefaultWindow,
	}

	if raw := os.Getenv("CODE_WINDOW"); raw != "" {
		if window, err := strconv.Atoi(raw); err == nil && window >= 0 && window <= 4 {
			cfg.CodeWindow = uint(window)
		}
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
