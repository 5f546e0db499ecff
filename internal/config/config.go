package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pandamasta/pwcheck/internal/envloader"
)

// ErrInvalid is wrapped by every error caused by a malformed variable.
var ErrInvalid = errors.New("invalid configuration")

// Config is the configuration of the pwcheck demo server and CLI.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	CSRF      CSRFConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
	Log       LogConfig
}

// ServerConfig holds the network address configuration.
type ServerConfig struct {
	Addr            string // Example: ":9003"
	ShutdownTimeout time.Duration
}

// DBConfig controls the optional check history.
type DBConfig struct {
	Path  string // Empty disables history
	Debug bool   // Log every SQL statement
}

// CSRFConfig holds CSRF cookie settings.
type CSRFConfig struct {
	CookieName string
	FieldName  string
	Secure     bool
}

// RateLimitConfig bounds how many checks one client may submit per window.
type RateLimitConfig struct {
	Limit  int // 0 disables the limiter
	Window time.Duration
}

// MetricsConfig controls the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level     string
	Format    string
	AddSource bool
}

// SlogLevel maps Level to a slog.Level, defaulting to info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Default returns the configuration used when no variable is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":9003",
			ShutdownTimeout: 5 * time.Second,
		},
		CSRF: CSRFConfig{
			CookieName: "csrf_token",
			FieldName:  "csrf_token",
		},
		RateLimit: RateLimitConfig{
			Limit:  30,
			Window: time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads .env (if present) and then the PWCHECK_* environment variables.
func Load() (*Config, error) {
	if _, err := envloader.LoadDotEnv(getEnv("PWCHECK_ENV_FILE", ".env")); err != nil {
		return nil, err
	}
	return FromEnv()
}

// FromEnv builds a Config from the environment only.
func FromEnv() (*Config, error) {
	cfg := Default()
	var err error

	cfg.Server.Addr = getEnv("PWCHECK_ADDR", cfg.Server.Addr)
	cfg.DB.Path = getEnv("PWCHECK_DB_PATH", cfg.DB.Path)
	cfg.Log.Level = getEnv("PWCHECK_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("PWCHECK_LOG_FORMAT", cfg.Log.Format)
	cfg.Metrics.Path = getEnv("PWCHECK_METRICS_PATH", cfg.Metrics.Path)

	if cfg.DB.Debug, err = getEnvBool("PWCHECK_DB_DEBUG", cfg.DB.Debug); err != nil {
		return nil, err
	}
	if cfg.Metrics.Enabled, err = getEnvBool("PWCHECK_METRICS", cfg.Metrics.Enabled); err != nil {
		return nil, err
	}
	if cfg.CSRF.Secure, err = getEnvBool("PWCHECK_CSRF_SECURE", cfg.CSRF.Secure); err != nil {
		return nil, err
	}
	if cfg.Log.AddSource, err = getEnvBool("PWCHECK_LOG_SOURCE", cfg.Log.AddSource); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Limit, err = getEnvInt("PWCHECK_RATE_LIMIT", cfg.RateLimit.Limit); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Window, err = getEnvDuration("PWCHECK_RATE_WINDOW", cfg.RateLimit.Window); err != nil {
		return nil, err
	}
	if cfg.Server.ShutdownTimeout, err = getEnvDuration("PWCHECK_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout); err != nil {
		return nil, err
	}

	if cfg.RateLimit.Limit < 0 {
		return nil, fmt.Errorf("%w: PWCHECK_RATE_LIMIT must not be negative", ErrInvalid)
	}
	if cfg.RateLimit.Window <= 0 {
		return nil, fmt.Errorf("%w: PWCHECK_RATE_WINDOW must be positive", ErrInvalid)
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return nil, fmt.Errorf("%w: PWCHECK_METRICS_PATH must start with /", ErrInvalid)
	}

	return cfg, nil
}

// getEnv returns the environment variable or a fallback default.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalid, key, v)
	}
	return b, nil
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, key, v)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a duration", ErrInvalid, key, v)
	}
	return d, nil
}
