package bootstrap_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/facturo/facturo/bootstrap"
)

func TestBootstrap_Integration(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	os.Setenv("FACTURO_DATABASE_DSN", dbPath)
	os.Setenv("FACTURO_LOG_LEVEL", "error")
	defer func() {
		os.Unsetenv("FACTURO_DATABASE_DSN")
		os.Unsetenv("FACTURO_LOG_LEVEL")
	}()

	app, err := bootstrap.New(bootstrap.Options{})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer app.Shutdown()

	if app.DB == nil {
		t.Error("DB should not be nil")
	}
	if app.HTTPServer == nil {
		t.Fatal("HTTPServer should not be nil")
	}
	if app.Metrics == nil {
		t.Error("Metrics should be enabled by default")
	}
	if app.Recurring == nil {
		t.Error("Recurring service should not be nil")
	}

	// The wired router serves requests end to end.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	app.HTTPServer.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health: status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/businesses", nil)
	rec = httptest.NewRecorder()
	app.HTTPServer.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no identity: status = %d, want 401", rec.Code)
	}
}

func TestBootstrap_DatabaseMigration(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "migrate-test.db")

	os.Setenv("FACTURO_DATABASE_DSN", dbPath)
	// Collectors register on the global prometheus registry; only one
	// test in the binary may enable them.
	os.Setenv("FACTURO_METRICS_ENABLED", "false")
	defer func() {
		os.Unsetenv("FACTURO_DATABASE_DSN")
		os.Unsetenv("FACTURO_METRICS_ENABLED")
	}()

	app, err := bootstrap.New(bootstrap.Options{})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer app.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, table := range []string{"businesses", "clients", "invoices", "estimates", "recurring_invoices"} {
		var count int
		if err := app.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			t.Errorf("query %s table: %v", table, err)
		}
	}
}

func TestBootstrap_WithConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	dbPath := filepath.Join(dir, "facturo.db")

	content := `
server:
  port: 9090
database:
  dsn: ` + dbPath + `
billing:
  provider: dummy
logging:
  level: error
metrics:
  enabled: false
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	app, err := bootstrap.New(bootstrap.Options{ConfigPath: cfgPath})
	if err != nil {
		t.Fatalf("create app: %v", err)
	}
	defer app.Shutdown()

	if app.HTTPServer.Addr != "0.0.0.0:9090" {
		t.Errorf("addr = %s, want 0.0.0.0:9090", app.HTTPServer.Addr)
	}
	if app.Config == nil {
		t.Error("config holder should watch the config file")
	}
}

func TestBootstrap_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("billing:\n  provider: paypal\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := bootstrap.New(bootstrap.Options{ConfigPath: cfgPath}); err == nil {
		t.Fatal("expected error for unknown billing provider")
	}
}
