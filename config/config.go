// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Billing  BillingConfig  `yaml:"billing"`
	Public   PublicConfig   `yaml:"public"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig configures the database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" is the only supported driver
	DSN    string `yaml:"dsn"`
}

// BillingConfig configures the subscription payment provider.
type BillingConfig struct {
	Provider            string            `yaml:"provider"` // "none", "stripe" or "dummy"
	StripeSecretKey     string            `yaml:"stripe_secret_key,omitempty"`
	StripePublicKey     string            `yaml:"stripe_public_key,omitempty"`
	StripeWebhookSecret string            `yaml:"stripe_webhook_secret,omitempty"`
	PlanPrices          map[string]string `yaml:"plan_prices,omitempty"` // plan -> stripe price ID
}

// PublicConfig configures external-facing URLs.
type PublicConfig struct {
	BaseURL string `yaml:"base_url"` // base for document sharing links
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Enable /metrics endpoint
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	// Metrics default on; explicit false in the file or env turns
	// them off.
	cfg := Config{Metrics: MetricsConfig{Enabled: true}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
// Useful for Docker deployments where no config file is needed.
//
// Environment variables:
//
//	FACTURO_SERVER_HOST            - Server host (default: 0.0.0.0)
//	FACTURO_SERVER_PORT            - Server port (default: 8080)
//	FACTURO_DATABASE_DSN           - Database path (default: facturo.db)
//	FACTURO_BILLING_PROVIDER       - Payment provider: none or stripe (default: none)
//	FACTURO_STRIPE_SECRET_KEY      - Stripe secret key
//	FACTURO_STRIPE_WEBHOOK_SECRET  - Stripe webhook signing secret
//	FACTURO_PUBLIC_BASE_URL        - Base URL for document sharing links
//	FACTURO_LOG_LEVEL              - Log level: debug, info, warn, error (default: info)
//	FACTURO_LOG_FORMAT             - Log format: json or console (default: json)
//	FACTURO_METRICS_ENABLED        - Enable /metrics endpoint (default: true)
func LoadFromEnv() (*Config, error) {
	cfg := Config{Metrics: MetricsConfig{Enabled: true}}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment
// variables.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies FACTURO_* environment variables to the
// config. Environment variables always override file-based
// configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FACTURO_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("FACTURO_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("FACTURO_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("FACTURO_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	if v := os.Getenv("FACTURO_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("FACTURO_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	if v := os.Getenv("FACTURO_BILLING_PROVIDER"); v != "" {
		cfg.Billing.Provider = v
	}
	if v := os.Getenv("FACTURO_STRIPE_SECRET_KEY"); v != "" {
		cfg.Billing.StripeSecretKey = v
	}
	if v := os.Getenv("FACTURO_STRIPE_PUBLIC_KEY"); v != "" {
		cfg.Billing.StripePublicKey = v
	}
	if v := os.Getenv("FACTURO_STRIPE_WEBHOOK_SECRET"); v != "" {
		cfg.Billing.StripeWebhookSecret = v
	}

	if v := os.Getenv("FACTURO_PUBLIC_BASE_URL"); v != "" {
		cfg.Public.BaseURL = v
	}

	if v := os.Getenv("FACTURO_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FACTURO_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("FACTURO_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("FACTURO_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "facturo.db"
	}

	if cfg.Billing.Provider == "" {
		cfg.Billing.Provider = "none"
	}

	if cfg.Public.BaseURL == "" {
		cfg.Public.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	if cfg.Database.Driver != "sqlite" {
		return fmt.Errorf("database.driver must be 'sqlite', got %q", cfg.Database.Driver)
	}

	validProviders := map[string]bool{"none": true, "stripe": true, "dummy": true}
	if !validProviders[cfg.Billing.Provider] {
		return fmt.Errorf("billing.provider must be 'none', 'stripe' or 'dummy', got %q", cfg.Billing.Provider)
	}
	if cfg.Billing.Provider == "stripe" && cfg.Billing.StripeSecretKey == "" {
		return fmt.Errorf("billing.stripe_secret_key is required when billing.provider is 'stripe'")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", cfg.Logging.Level)
	}

	return nil
}
