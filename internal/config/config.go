package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // TZ must resolve on minimal images

	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	BotToken          string
	DatabaseURL       string
	Storage           string
	SessionTTL        time.Duration
	SessionSweepEvery time.Duration
	LogLevel          string
	LogFormat         string
	PollTimeout       int // seconds
	Timezone          string
}

// Load reads the environment, after merging an optional .env file.
// BOT_TOKEN is checked by the caller that needs it.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		BotToken:    getenv("BOT_TOKEN"),
		DatabaseURL: getenv("DATABASE_URL"),
		Storage:     strings.ToLower(strings.TrimSpace(getenv("STORAGE"))),
		LogLevel:    strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL"))),
		LogFormat:   strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT"))),
	}

	if cfg.Storage == "" {
		cfg.Storage = StoragePostgres
	}
	switch cfg.Storage {
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required")
		}
	case StorageMemory:
	default:
		return Config{}, fmt.Errorf("STORAGE: unknown backend %q", cfg.Storage)
	}

	var err error
	if cfg.SessionTTL, err = duration(getenv, "SESSION_TTL", 30*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.SessionSweepEvery, err = duration(getenv, "SESSION_SWEEP_EVERY", time.Minute); err != nil {
		return Config{}, err
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogLevel, err = ParseLogLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = "json"
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return Config{}, fmt.Errorf("LOG_FORMAT: unknown format %q", cfg.LogFormat)
	}

	cfg.Timezone = strings.TrimSpace(getenv("TZ"))
	if cfg.Timezone == "" {
		cfg.Timezone = "Europe/London"
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return Config{}, fmt.Errorf("TZ: %w", err)
	}

	cfg.PollTimeout = 60
	if v := strings.TrimSpace(getenv("POLL_TIMEOUT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("POLL_TIMEOUT: invalid value %q", v)
		}
		cfg.PollTimeout = n
	}

	return cfg, nil
}

// ParseLogLevel normalizes a level name; only debug, info, warn and error are accepted.
func ParseLogLevel(s string) (string, error) {
	level := strings.ToLower(strings.TrimSpace(s))
	switch level {
	case "debug", "info", "warn", "error":
		return level, nil
	}
	return "", fmt.Errorf("unknown level %q", s)
}

func duration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}
