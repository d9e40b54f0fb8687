package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func noEnvFile(t *testing.T) LoadOptions {
	t.Helper()
	return LoadOptions{EnvFile: filepath.Join(t.TempDir(), "missing.env")}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(noEnvFile(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.PagarmeV1URL != "https://api.pagar.me/1" || cfg.PagarmeV5URL != "https://api.pagar.me/core/v5" {
		t.Errorf("provider urls = %q, %q", cfg.PagarmeV1URL, cfg.PagarmeV5URL)
	}
	if cfg.CacheTTL != 30*time.Second || cfg.ProviderTimeout != 10*time.Second {
		t.Errorf("durations = %v, %v", cfg.CacheTTL, cfg.ProviderTimeout)
	}
	if cfg.PageSize != 1000 || cfg.MaxPages != 1 {
		t.Errorf("paging = %d x %d", cfg.PageSize, cfg.MaxPages)
	}
	p := cfg.Product()
	if p.Amount != 10000 || p.Description != "Produto Teste" || p.Code != "PROD-001" {
		t.Errorf("product = %+v", p)
	}
	if cfg.AuthEnabled() {
		t.Error("auth enabled without credentials")
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("PAGARME_API_KEY", "ak_live_abcdef")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("MAX_PAGES", "5")
	t.Setenv("CACHE_BACKEND", "none")

	cfg, err := Load(noEnvFile(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PagarmeAPIKey != "ak_live_abcdef" || cfg.HTTPAddr != ":9090" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.CacheTTL != 2*time.Minute || cfg.MaxPages != 5 || cfg.CacheBackend != CacheNone {
		t.Errorf("overrides not applied: ttl=%v pages=%d backend=%q", cfg.CacheTTL, cfg.MaxPages, cfg.CacheBackend)
	}
}

func TestLoadYAMLFileBelowEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dashboard.yaml")
	content := "http_addr: \":7070\"\ntimezone: UTC\npage_size: 250\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PAGE_SIZE", "300")

	opts := noEnvFile(t)
	opts.File = path
	cfg, err := Load(opts)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":7070" || cfg.Timezone != "UTC" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.PageSize != 300 {
		t.Errorf("PageSize = %d, env should win", cfg.PageSize)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("DASHBOARD_TEST_PRODUCT_CODE=SKU-9\nPRODUCT_CODE=SKU-9\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = os.Unsetenv("PRODUCT_CODE")
		_ = os.Unsetenv("DASHBOARD_TEST_PRODUCT_CODE")
	})

	cfg, err := Load(LoadOptions{EnvFile: path})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ProductCode != "SKU-9" {
		t.Fatalf("ProductCode = %q", cfg.ProductCode)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"cache backend", func(c *Config) { c.CacheBackend = "memcached" }, "cache_backend"},
		{"postgres without url", func(c *Config) { c.CheckoutStore = StorePostgres }, "database_url"},
		{"page size", func(c *Config) { c.PageSize = 0 }, "page_size"},
		{"timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "timezone"},
		{"half credentials", func(c *Config) { c.DashboardUser = "admin" }, "dashboard_user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err %q does not mention %q", err, tt.want)
			}
		})
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestYAMLMasksSecrets(t *testing.T) {
	cfg := Default()
	cfg.PagarmeAPIKey = "ak_live_supersecret"
	cfg.DatabaseURL = "postgres://app:hunter2@db:5432/dashboard"
	cfg.DashboardPasswordHash = "$2a$10$abcdefghijklmnopqrstuv"

	out, err := YAML(cfg)
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	s := string(out)
	for _, secret := range []string{"supersecret", "hunter2", "abcdefghijklmnop"} {
		if strings.Contains(s, secret) {
			t.Errorf("rendered config leaks %q:\n%s", secret, s)
		}
	}
	for _, want := range []string{"ak_liv****", "postgres://app:****@db:5432/dashboard", "cache_ttl: 30s"} {
		if !strings.Contains(s, want) {
			t.Errorf("rendered config lacks %q:\n%s", want, s)
		}
	}
}
