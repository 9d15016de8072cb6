package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config keeps runtime settings for the web server.
type Config struct {
	DatabaseURL          string
	HTTPAddr             string
	SessionTTL           time.Duration
	SessionCookieName    string
	CookieSecure         bool
	SessionSweepInterval time.Duration
	SessionSweepAt       string
	TimeZone             *time.Location
	LogLevel             slog.Level
	GinMode              string
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:          strings.TrimSpace(os.Getenv("DATABASE_URL")),
		HTTPAddr:             strings.TrimSpace(os.Getenv("HTTP_ADDR")),
		SessionTTL:           parseHours(strings.TrimSpace(os.Getenv("SESSION_TTL_HOURS"))),
		SessionCookieName:    strings.TrimSpace(os.Getenv("SESSION_COOKIE_NAME")),
		SessionSweepInterval: parseMinutes(strings.TrimSpace(os.Getenv("SESSION_SWEEP_INTERVAL_MINUTES"))),
		SessionSweepAt:       strings.TrimSpace(os.Getenv("SESSION_SWEEP_AT")),
		GinMode:              strings.TrimSpace(os.Getenv("GIN_MODE")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "taskboard.db"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8000"
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 14 * 24 * time.Hour
	}
	if cfg.SessionCookieName == "" {
		cfg.SessionCookieName = "sessionid"
	}
	if cfg.SessionSweepInterval == 0 && cfg.SessionSweepAt == "" {
		cfg.SessionSweepInterval = time.Hour
	}
	switch cfg.GinMode {
	case "":
		cfg.GinMode = "release"
	case "debug", "release", "test":
	default:
		return cfg, fmt.Errorf("GIN_MODE: unknown mode %q", cfg.GinMode)
	}

	if raw := strings.TrimSpace(os.Getenv("COOKIE_SECURE")); raw != "" {
		secure, err := strconv.ParseBool(raw)
		if err != nil {
			return cfg, fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		cfg.CookieSecure = secure
	}

	cfg.TimeZone = time.UTC
	if raw := strings.TrimSpace(os.Getenv("TIME_ZONE")); raw != "" {
		loc, err := time.LoadLocation(raw)
		if err != nil {
			return cfg, fmt.Errorf("TIME_ZONE: %w", err)
		}
		cfg.TimeZone = loc
	}

	if raw := strings.TrimSpace(os.Getenv("LOG_LEVEL")); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			return cfg, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}

	return cfg, nil
}

func parseHours(raw string) time.Duration {
	return parsePositive(raw, time.Hour)
}

func parseMinutes(raw string) time.Duration {
	return parsePositive(raw, time.Minute)
}

func parsePositive(raw string, unit time.Duration) time.Duration {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n) * unit
}
