package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/facturo/facturo/config"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 9090

database:
  driver: "sqlite"
  dsn: ":memory:"

billing:
  provider: "stripe"
  stripe_secret_key: "sk_test_xxx"
  stripe_webhook_secret: "whsec_xxx"
  plan_prices:
    professional: "price_pro"
    enterprise: "price_ent"

public:
  base_url: "https://app.example.com"
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %s, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.DSN != ":memory:" {
		t.Errorf("Database.DSN = %s, want :memory:", cfg.Database.DSN)
	}
	if cfg.Billing.Provider != "stripe" {
		t.Errorf("Billing.Provider = %s, want stripe", cfg.Billing.Provider)
	}
	if cfg.Billing.PlanPrices["professional"] != "price_pro" {
		t.Errorf("PlanPrices[professional] = %s, want price_pro", cfg.Billing.PlanPrices["professional"])
	}
	if cfg.Public.BaseURL != "https://app.example.com" {
		t.Errorf("Public.BaseURL = %s, want https://app.example.com", cfg.Public.BaseURL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := writeAndLoad(t, "server:\n  port: 8080\n")

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default Host = %s, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("default ReadTimeout = %v, want 30s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 60*time.Second {
		t.Errorf("default WriteTimeout = %v, want 60s", cfg.Server.WriteTimeout)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("default Database.Driver = %s, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.DSN != "facturo.db" {
		t.Errorf("default Database.DSN = %s, want facturo.db", cfg.Database.DSN)
	}
	if cfg.Billing.Provider != "none" {
		t.Errorf("default Billing.Provider = %s, want none", cfg.Billing.Provider)
	}
	if cfg.Public.BaseURL != "http://localhost:8080" {
		t.Errorf("default Public.BaseURL = %s, want http://localhost:8080", cfg.Public.BaseURL)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %s, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("default Logging.Format = %s, want json", cfg.Logging.Format)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("default Metrics.Path = %s, want /metrics", cfg.Metrics.Path)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	os.Setenv("TEST_STRIPE_KEY", "sk_test_expanded")
	defer os.Unsetenv("TEST_STRIPE_KEY")

	content := `
billing:
  provider: "stripe"
  stripe_secret_key: "${TEST_STRIPE_KEY}"
`

	cfg := writeAndLoad(t, content)

	if cfg.Billing.StripeSecretKey != "sk_test_expanded" {
		t.Errorf("StripeSecretKey = %s, want sk_test_expanded", cfg.Billing.StripeSecretKey)
	}
}

func TestLoad_InvalidDriver(t *testing.T) {
	content := `
database:
  driver: "postgres"
`
	_, err := writeAndLoadErr(t, content)
	if err == nil {
		t.Fatal("expected error for unsupported database.driver")
	}
}

func TestLoad_InvalidBillingProvider(t *testing.T) {
	content := `
billing:
  provider: "paypal"
`
	_, err := writeAndLoadErr(t, content)
	if err == nil {
		t.Fatal("expected error for invalid billing.provider")
	}
}

func TestLoad_StripeMissingSecretKey(t *testing.T) {
	content := `
billing:
  provider: "stripe"
`
	_, err := writeAndLoadErr(t, content)
	if err == nil {
		t.Fatal("expected error for stripe provider without secret key")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	content := `
logging:
  level: "verbose"
`
	_, err := writeAndLoadErr(t, content)
	if err == nil {
		t.Fatal("expected error for invalid logging.level")
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("FACTURO_SERVER_PORT", "9999")
	os.Setenv("FACTURO_DATABASE_DSN", "/tmp/env-test.db")
	os.Setenv("FACTURO_LOG_LEVEL", "debug")
	os.Setenv("FACTURO_METRICS_ENABLED", "true")
	defer func() {
		os.Unsetenv("FACTURO_SERVER_PORT")
		os.Unsetenv("FACTURO_DATABASE_DSN")
		os.Unsetenv("FACTURO_LOG_LEVEL")
		os.Unsetenv("FACTURO_METRICS_ENABLED")
	}()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Database.DSN != "/tmp/env-test.db" {
		t.Errorf("Database.DSN = %s, want /tmp/env-test.db", cfg.Database.DSN)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s, want debug", cfg.Logging.Level)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	os.Setenv("FACTURO_SERVER_PORT", "7777")
	os.Setenv("FACTURO_LOG_LEVEL", "error")
	defer func() {
		os.Unsetenv("FACTURO_SERVER_PORT")
		os.Unsetenv("FACTURO_LOG_LEVEL")
	}()

	content := `
server:
  port: 8080
logging:
  level: "info"
database:
  dsn: "/data/file.db"
`

	cfg := writeAndLoad(t, content)

	// Env should override file
	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want 7777 (env override)", cfg.Server.Port)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %s, want error (env override)", cfg.Logging.Level)
	}
	// File value should still be used for non-overridden
	if cfg.Database.DSN != "/data/file.db" {
		t.Errorf("Database.DSN = %s, want /data/file.db", cfg.Database.DSN)
	}
}

func TestEnvOverrides_AllServerSettings(t *testing.T) {
	os.Setenv("FACTURO_SERVER_HOST", "192.168.1.1")
	os.Setenv("FACTURO_SERVER_PORT", "3000")
	os.Setenv("FACTURO_SERVER_READ_TIMEOUT", "45s")
	os.Setenv("FACTURO_SERVER_WRITE_TIMEOUT", "90s")
	defer func() {
		os.Unsetenv("FACTURO_SERVER_HOST")
		os.Unsetenv("FACTURO_SERVER_PORT")
		os.Unsetenv("FACTURO_SERVER_READ_TIMEOUT")
		os.Unsetenv("FACTURO_SERVER_WRITE_TIMEOUT")
	}()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	if cfg.Server.Host != "192.168.1.1" {
		t.Errorf("Server.Host = %s, want 192.168.1.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 45s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 90*time.Second {
		t.Errorf("Server.WriteTimeout = %v, want 90s", cfg.Server.WriteTimeout)
	}
}

func TestEnvOverrides_BillingSettings(t *testing.T) {
	os.Setenv("FACTURO_BILLING_PROVIDER", "stripe")
	os.Setenv("FACTURO_STRIPE_SECRET_KEY", "sk_test_12345")
	os.Setenv("FACTURO_STRIPE_WEBHOOK_SECRET", "whsec_12345")
	defer func() {
		os.Unsetenv("FACTURO_BILLING_PROVIDER")
		os.Unsetenv("FACTURO_STRIPE_SECRET_KEY")
		os.Unsetenv("FACTURO_STRIPE_WEBHOOK_SECRET")
	}()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	if cfg.Billing.Provider != "stripe" {
		t.Errorf("Billing.Provider = %s, want stripe", cfg.Billing.Provider)
	}
	if cfg.Billing.StripeSecretKey != "sk_test_12345" {
		t.Errorf("Billing.StripeSecretKey = %s, want sk_test_12345", cfg.Billing.StripeSecretKey)
	}
	if cfg.Billing.StripeWebhookSecret != "whsec_12345" {
		t.Errorf("Billing.StripeWebhookSecret = %s, want whsec_12345", cfg.Billing.StripeWebhookSecret)
	}
}

func TestEnvOverrides_PublicBaseURL(t *testing.T) {
	os.Setenv("FACTURO_PUBLIC_BASE_URL", "https://invoices.example.com")
	defer os.Unsetenv("FACTURO_PUBLIC_BASE_URL")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	if cfg.Public.BaseURL != "https://invoices.example.com" {
		t.Errorf("Public.BaseURL = %s, want https://invoices.example.com", cfg.Public.BaseURL)
	}
}

func TestEnvOverrides_InvalidPort(t *testing.T) {
	os.Setenv("FACTURO_SERVER_PORT", "not-a-number")
	defer os.Unsetenv("FACTURO_SERVER_PORT")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	// Should use default port when env var is invalid
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080 (default)", cfg.Server.Port)
	}
}

func TestEnvOverrides_InvalidDuration(t *testing.T) {
	os.Setenv("FACTURO_SERVER_READ_TIMEOUT", "not-a-duration")
	defer os.Unsetenv("FACTURO_SERVER_READ_TIMEOUT")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 30s (default)", cfg.Server.ReadTimeout)
	}
}

func TestLoadWithFallback_FileExists(t *testing.T) {
	content := `
server:
  port: 4040
`

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.LoadWithFallback(path)
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}

	if cfg.Server.Port != 4040 {
		t.Errorf("Server.Port = %d, want 4040", cfg.Server.Port)
	}
}

func TestLoadWithFallback_EnvOnly(t *testing.T) {
	os.Setenv("FACTURO_SERVER_PORT", "6060")
	defer os.Unsetenv("FACTURO_SERVER_PORT")

	cfg, err := config.LoadWithFallback("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}

	if cfg.Server.Port != 6060 {
		t.Errorf("Server.Port = %d, want 6060", cfg.Server.Port)
	}
}

func TestParseBoolValues(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{"on", true},
		{"false", false},
		{"0", false},
		{"no", false},
		{"off", false},
		{"invalid", false},
	}

	for _, tt := range tests {
		os.Setenv("FACTURO_METRICS_ENABLED", tt.value)

		cfg, err := config.LoadFromEnv()
		if err != nil {
			t.Fatalf("LoadFromEnv error: %v", err)
		}

		if cfg.Metrics.Enabled != tt.expected {
			t.Errorf("value=%q: Metrics.Enabled = %v, want %v", tt.value, cfg.Metrics.Enabled, tt.expected)
		}

		os.Unsetenv("FACTURO_METRICS_ENABLED")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	content := `
server:
  port: 8080
  this is not valid yaml: [
`
	_, err := writeAndLoadErr(t, content)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := config.Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

// Helpers

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := writeAndLoadErr(t, content)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return cfg
}

func writeAndLoadErr(t *testing.T, content string) (*config.Config, error) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return config.Load(path)
}
