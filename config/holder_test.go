package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/facturo/facturo/config"
	"github.com/rs/zerolog"
)

func TestHolder_Get(t *testing.T) {
	cfg := writeConfig(t, validConfig())

	h, err := config.NewHolder(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	got := h.Get()
	if got == nil {
		t.Fatal("Get returned nil")
	}
	if got.Public.BaseURL != "https://app.example.com" {
		t.Errorf("Public.BaseURL = %s, want https://app.example.com", got.Public.BaseURL)
	}
}

func TestHolder_Reload(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	// Verify initial config
	cfg := h.Get()
	if cfg.Logging.Level != "info" {
		t.Errorf("initial Logging.Level = %s, want info", cfg.Logging.Level)
	}

	// Write new config
	newContent := `
public:
  base_url: "https://app.example.com"

logging:
  level: "debug"
`
	if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	// Reload
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	// Verify new config
	cfg = h.Get()
	if cfg.Logging.Level != "debug" {
		t.Errorf("reloaded Logging.Level = %s, want debug", cfg.Logging.Level)
	}
}

func TestHolder_OnChange(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var mu sync.Mutex
	var called bool
	var receivedCfg *config.Config

	h.OnChange(func(cfg *config.Config) {
		mu.Lock()
		called = true
		receivedCfg = cfg
		mu.Unlock()
	})

	// Write new config and reload
	newContent := `
public:
  base_url: "https://other.example.com"
`
	if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	mu.Lock()
	if !called {
		t.Error("OnChange callback was not called")
	}
	if receivedCfg == nil {
		t.Error("received nil config in callback")
	} else if receivedCfg.Public.BaseURL != "https://other.example.com" {
		t.Errorf("callback received BaseURL = %s, want https://other.example.com", receivedCfg.Public.BaseURL)
	}
	mu.Unlock()
}

func TestHolder_ReloadInvalidConfig(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	// Write invalid config
	invalidContent := `
billing:
  provider: "paypal"
`
	if err := os.WriteFile(path, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("write invalid config: %v", err)
	}

	// Reload should fail
	err = h.Reload()
	if err == nil {
		t.Error("Reload should fail for invalid config")
	}

	// Old config should still be valid
	cfg := h.Get()
	if cfg.Public.BaseURL != "https://app.example.com" {
		t.Errorf("should keep old config, got Public.BaseURL = %s", cfg.Public.BaseURL)
	}
}

func TestHolder_WatchFile(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var mu sync.Mutex
	var callCount int

	h.OnChange(func(cfg *config.Config) {
		mu.Lock()
		callCount++
		mu.Unlock()
	})

	if err := h.WatchFile(); err != nil {
		t.Fatalf("WatchFile error: %v", err)
	}

	// Write new config
	newContent := `
public:
  base_url: "https://watched.example.com"
`
	if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	// Wait for file watcher to trigger
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	if callCount == 0 {
		t.Error("file watcher did not trigger reload")
	}
	mu.Unlock()

	// Verify config was updated
	cfg := h.Get()
	if cfg.Public.BaseURL != "https://watched.example.com" {
		t.Errorf("after file watch, Public.BaseURL = %s, want https://watched.example.com", cfg.Public.BaseURL)
	}
}

func TestHolder_ConcurrentAccess(t *testing.T) {
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	// Start many readers
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cfg := h.Get()
				if cfg == nil {
					t.Error("concurrent Get returned nil")
				}
			}
		}()
	}

	// Concurrent reloads
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Reload()
		}()
	}

	wg.Wait()
}

func TestReloadableFields(t *testing.T) {
	fields := config.ReloadableFields()
	if len(fields) == 0 {
		t.Error("ReloadableFields returned empty")
	}

	// Check expected fields
	expected := []string{"logging.level", "billing.plan_prices"}
	for _, e := range expected {
		found := false
		for _, f := range fields {
			if f == e {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("%s not in ReloadableFields", e)
		}
	}
}

func TestNonReloadableFields(t *testing.T) {
	fields := config.NonReloadableFields()
	if len(fields) == 0 {
		t.Error("NonReloadableFields returned empty")
	}

	// Check expected fields
	expected := []string{"server.host", "server.port", "database.dsn"}
	for _, e := range expected {
		found := false
		for _, f := range fields {
			if f == e {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("%s not in NonReloadableFields", e)
		}
	}
}

// Helpers

func validConfig() string {
	return `
public:
  base_url: "https://app.example.com"

logging:
  level: "info"
`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
