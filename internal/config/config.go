package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// RunModeWebhook receives updates over the HTTP webhook endpoint.
	RunModeWebhook = "webhook"
	// RunModeLongpoll pulls updates with getUpdates.
	RunModeLongpoll = "longpoll"
)

const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite3"
)

// Config holds all configuration for the application
type Config struct {
	TelegramToken  string        `yaml:"telegram_token" envconfig:"TELEGRAM_TOKEN"`
	DatabaseDriver string        `yaml:"database_driver" envconfig:"DATABASE_DRIVER"`
	DatabaseURL    string        `yaml:"database_url" envconfig:"DATABASE_URL"`
	LogLevel       string        `yaml:"log_level" envconfig:"LOG_LEVEL"`
	LogFormat      string        `yaml:"log_format" envconfig:"LOG_FORMAT"`
	Port           string        `yaml:"port" envconfig:"PORT"`
	RunMode        string        `yaml:"run_mode" envconfig:"RUN_MODE"`
	WebhookURL     string        `yaml:"webhook_url" envconfig:"WEBHOOK_URL"`
	WebhookSecret  string        `yaml:"webhook_secret" envconfig:"WEBHOOK_SECRET"`
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	SendInterval   time.Duration `yaml:"send_interval" envconfig:"SEND_INTERVAL"`
	SendBurst      int           `yaml:"send_burst" envconfig:"SEND_BURST"`
}

// Load reads an optional .env file, an optional YAML file at path and then
// the process environment, in that order of increasing precedence.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize fills defaults and validates required fields.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.TelegramToken) == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))
	if driver == "" {
		driver = DriverPostgres
	}
	switch driver {
	case DriverPostgres, DriverPgx, DriverSQLite:
	default:
		return fmt.Errorf("invalid DATABASE_DRIVER %q; allowed: postgres, pgx, sqlite3", cfg.DatabaseDriver)
	}
	cfg.DatabaseDriver = driver

	cfg.LogLevel = getOrDefault(cfg.LogLevel, "info")
	cfg.LogFormat = strings.ToLower(getOrDefault(cfg.LogFormat, "text"))
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("invalid LOG_FORMAT %q; allowed: text, json", cfg.LogFormat)
	}
	cfg.Port = getOrDefault(cfg.Port, "8080")

	rm := strings.ToLower(strings.TrimSpace(cfg.RunMode))
	if rm == "" {
		rm = RunModeWebhook
	}
	if rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.WebhookURL) == "" {
			return fmt.Errorf("WEBHOOK_URL is required when RUN_MODE is 'webhook'")
		}
		if strings.TrimSpace(cfg.WebhookSecret) == "" {
			return fmt.Errorf("WEBHOOK_SECRET is required when RUN_MODE is 'webhook'")
		}
		cfg.WebhookURL = strings.TrimRight(cfg.WebhookURL, "/")
	case RunModeLongpoll:
	default:
		return fmt.Errorf("invalid RUN_MODE %q; allowed: webhook, longpoll", cfg.RunMode)
	}
	cfg.RunMode = rm

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 25 * time.Second
	}
	if cfg.SendInterval <= 0 {
		cfg.SendInterval = 40 * time.Millisecond
	}
	if cfg.SendBurst <= 0 {
		cfg.SendBurst = 5
	}

	return nil
}

// getOrDefault returns value or the default if value is blank
func getOrDefault(value, defaultValue string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return defaultValue
}
