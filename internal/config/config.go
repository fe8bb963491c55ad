// Package config loads environment configuration and owns the runtime-mutable
// monitor settings (check interval, dominance band, info-message toggle).
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults for the runtime-mutable settings.
const (
	DefaultIntervalHours = 1
	DefaultMinThreshold  = 3.6
	DefaultMaxThreshold  = 3.85
)

var (
	// ErrIntervalRange is returned when the check interval is outside 1-24 hours.
	ErrIntervalRange = errors.New("config: interval must be between 1 and 24 hours")

	// ErrThresholdOrder is returned when the minimum threshold is not below the maximum.
	ErrThresholdOrder = errors.New("config: minimum threshold must be below maximum")

	// ErrThresholdRange is returned when a threshold falls outside 0-100.
	ErrThresholdRange = errors.New("config: thresholds must be between 0 and 100")
)

// Config is the environment-sourced configuration. The monitor settings in
// here are starting values; persisted overrides and admin commands mutate
// them at runtime through Manager.
type Config struct {
	TelegramToken string
	AlertChatID   int64
	AdminIDs      []int64

	IntervalHours int
	MinThreshold  float64
	MaxThreshold  float64
	SendInfo      bool

	DatabaseURL string
	RedisURL    string
	OpsAddr     string

	BookFile     string
	SettingsFile string
}

// FromEnv reads configuration from the environment, falling back to the
// shipped defaults.
func FromEnv() Config {
	return Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		AlertChatID:   envInt64("TELEGRAM_CHAT_ID", 0),
		AdminIDs:      envIDList("ADMIN_IDS"),
		IntervalHours: envInt("CHECK_INTERVAL_HOURS", DefaultIntervalHours),
		MinThreshold:  envFloat("DOMINANCE_MIN_THRESHOLD", DefaultMinThreshold),
		MaxThreshold:  envFloat("DOMINANCE_MAX_THRESHOLD", DefaultMaxThreshold),
		// Info messages are on unless explicitly disabled.
		SendInfo:     os.Getenv("SEND_INFO_MESSAGES") != "false",
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		OpsAddr:      envString("OPS_ADDR", ":8080"),
		BookFile:     envString("PORTFOLIO_FILE", "portfolios.json"),
		SettingsFile: envString("CONFIG_FILE", "bot-config.json"),
	}
}

// Snapshot is a consistent view of the runtime-mutable settings.
type Snapshot struct {
	IntervalHours int
	MinThreshold  float64
	MaxThreshold  float64
	SendInfo      bool
}

// Interval returns the check interval as a duration.
func (s Snapshot) Interval() time.Duration {
	return time.Duration(s.IntervalHours) * time.Hour
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envIDList(key string) []int64 {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(v, ",") {
		if n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
			ids = append(ids, n)
		}
	}
	return ids
}
