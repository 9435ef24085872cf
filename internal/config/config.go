package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int    `yaml:"port"`
	DatabasePath string `yaml:"database_path"`
	CORSOrigin   string `yaml:"cors_origin"`
	Environment  string `yaml:"environment"`
	LogLevel     string `yaml:"log_level"`

	SessionTTL             time.Duration `yaml:"session_ttl"`
	SessionCleanupSchedule string        `yaml:"session_cleanup_schedule"` // cron spec, e.g. "@every 1h"
	StatsInterval          time.Duration `yaml:"stats_interval"`

	TelegramToken         string `yaml:"telegram_token"`
	TelegramWebhookSecret string `yaml:"telegram_webhook_secret"`
	TelegramAPIEndpoint   string `yaml:"telegram_api_endpoint"` // format string with token and method verbs

	TicketSecret string        `yaml:"ticket_secret"`
	TicketTTL    time.Duration `yaml:"ticket_ttl"`
}

// Default returns the configuration used when nothing else is provided.
func Default() *Config {
	return &Config{
		ServerPort:             8080,
		DatabasePath:           "./yellownote.db",
		CORSOrigin:             "https://yellownote.vercel.app",
		Environment:            "development",
		LogLevel:               "info",
		SessionTTL:             7 * 24 * time.Hour,
		SessionCleanupSchedule: "@every 1h",
		StatsInterval:          15 * time.Second,
		TelegramAPIEndpoint:    "https://api.telegram.org/bot%s/%s",
		TicketTTL:              time.Minute,
	}
}

// Load builds the configuration from defaults, an optional YAML file at path
// and environment variables, in that order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.ServerPort = port
	}

	c.DatabasePath = getEnv("DATABASE_PATH", c.DatabasePath)
	c.CORSOrigin = getEnv("CORS_ORIGIN", c.CORSOrigin)
	c.Environment = getEnv("APP_ENV", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.SessionCleanupSchedule = getEnv("SESSION_CLEANUP_SCHEDULE", c.SessionCleanupSchedule)
	c.TelegramToken = getEnv("TELEGRAM_TOKEN", c.TelegramToken)
	c.TelegramWebhookSecret = getEnv("TELEGRAM_WEBHOOK_SECRET", c.TelegramWebhookSecret)
	c.TelegramAPIEndpoint = getEnv("TELEGRAM_API_ENDPOINT", c.TelegramAPIEndpoint)
	c.TicketSecret = getEnv("TICKET_SECRET", c.TicketSecret)

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SESSION_TTL", &c.SessionTTL},
		{"STATS_INTERVAL", &c.StatsInterval},
		{"TICKET_TTL", &c.TicketTTL},
	}
	for _, d := range durations {
		v, ok := os.LookupEnv(d.key)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.key, v, err)
		}
		*d.dst = parsed
	}
	return nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("port %d out of range", c.ServerPort)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL)
	}
	if c.TicketTTL <= 0 {
		return fmt.Errorf("ticket ttl must be positive, got %s", c.TicketTTL)
	}
	if c.StatsInterval <= 0 {
		return fmt.Errorf("stats interval must be positive, got %s", c.StatsInterval)
	}
	if _, err := cron.ParseStandard(c.SessionCleanupSchedule); err != nil {
		return fmt.Errorf("invalid session cleanup schedule %q: %w", c.SessionCleanupSchedule, err)
	}
	return nil
}

// IsProduction reports whether the service runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
