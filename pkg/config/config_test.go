package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.RequestRetry != 3 {
		t.Errorf("expected REQUEST_RETRY 3, got %d", cfg.RequestRetry)
	}
	if cfg.Timeout() != 20*time.Second {
		t.Errorf("expected timeout 20s, got %v", cfg.Timeout())
	}
	if cfg.Sleep() != 800*time.Millisecond {
		t.Errorf("expected sleep 800ms, got %v", cfg.Sleep())
	}
	if cfg.UserAgent != DefaultUserAgent {
		t.Errorf("unexpected user agent %q", cfg.UserAgent)
	}
	if cfg.MaxPerProduct != 3 {
		t.Errorf("expected MAX_PER_PRODUCT 3, got %d", cfg.MaxPerProduct)
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "REQUEST_RETRY=5\nREQUEST_SLEEP=1.5\nHTTP_PROXIES=http://a:1, ,http://b:2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.RequestRetry != 5 {
		t.Errorf("expected REQUEST_RETRY 5, got %d", cfg.RequestRetry)
	}
	if cfg.Sleep() != 1500*time.Millisecond {
		t.Errorf("expected sleep 1.5s, got %v", cfg.Sleep())
	}
	proxies := cfg.Proxies()
	if len(proxies) != 2 || proxies[0] != "http://a:1" || proxies[1] != "http://b:2" {
		t.Errorf("unexpected proxies %v", proxies)
	}
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("MAX_PER_PRODUCT", "7")
	t.Setenv("REQUEST_TIMEOUT", "2.5")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.MaxPerProduct != 7 {
		t.Errorf("expected MAX_PER_PRODUCT 7, got %d", cfg.MaxPerProduct)
	}
	if cfg.Timeout() != 2500*time.Millisecond {
		t.Errorf("expected timeout 2.5s, got %v", cfg.Timeout())
	}
}
