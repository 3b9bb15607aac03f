package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DASHBOARD_CACHE_TTL_SECONDS", "")
	t.Setenv("DEFAULT_TAX_RATE", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.DashboardCacheTTLSeconds != 30 {
		t.Fatalf("expected default TTL 30, got %d", cfg.DashboardCacheTTLSeconds)
	}
	if !cfg.DefaultTaxRate.IsZero() {
		t.Fatalf("expected zero default tax rate, got %s", cfg.DefaultTaxRate)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("expected address :8080, got %q", cfg.Address())
	}
}

func TestLoadRejectsBadTTLAndTaxRate(t *testing.T) {
	t.Setenv("DASHBOARD_CACHE_TTL_SECONDS", "-5")
	t.Setenv("DEFAULT_TAX_RATE", "-11")

	cfg := Load()
	if cfg.DashboardCacheTTLSeconds != 30 {
		t.Fatalf("expected TTL fallback 30, got %d", cfg.DashboardCacheTTLSeconds)
	}
	if !cfg.DefaultTaxRate.IsZero() {
		t.Fatalf("expected negative tax rate to fall back to zero, got %s", cfg.DefaultTaxRate)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DEFAULT_TAX_RATE", "11")
	t.Setenv("SEED_DEMO_DATA", "false")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Port)
	}
	if cfg.DefaultTaxRate.String() != "11" {
		t.Fatalf("expected tax rate 11, got %s", cfg.DefaultTaxRate)
	}
	if cfg.SeedDemoData {
		t.Fatalf("expected demo seed disabled")
	}
}
