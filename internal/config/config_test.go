package config

import (
	"strings"
	"testing"
	"time"
)

// setRequired provides the secrets without which Load refuses to start.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test_123")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if cfg.ReadTimeout != 15*time.Second || cfg.WriteTimeout != 20*time.Second {
		t.Fatalf("timeouts = %v/%v", cfg.ReadTimeout, cfg.WriteTimeout)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode = %q", cfg.GinMode)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("APIBasePath = %q", cfg.APIBasePath)
	}
	if cfg.PublicBaseURL != "http://localhost:3000" {
		t.Fatalf("PublicBaseURL = %q", cfg.PublicBaseURL)
	}
	if !cfg.StaticCatalog() {
		t.Fatal("empty DB_PATH must select the static catalog")
	}
	if cfg.OTEL.Enabled {
		t.Fatal("OTel must default to disabled")
	}
}

func TestLoad_StaticCatalogSwitch(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_PATH", "gifts.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StaticCatalog() {
		t.Fatal("DB_PATH set must select the live catalog")
	}
}

func TestLoad_MissingStripeSecrets(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "STRIPE_SECRET_KEY") {
		t.Fatalf("expected STRIPE_SECRET_KEY error, got %v", err)
	}

	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "STRIPE_WEBHOOK_SECRET") {
		t.Fatalf("expected STRIPE_WEBHOOK_SECRET error, got %v", err)
	}
}

func TestLoad_Normalization(t *testing.T) {
	setRequired(t)
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("GIN_MODE", "bogus")
	t.Setenv("API_BASE_PATH", "api/v2/")
	t.Setenv("PUBLIC_BASE_URL", "https://gifts.example.org/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode = %q", cfg.GinMode)
	}
	if cfg.APIBasePath != "/api/v2" {
		t.Fatalf("APIBasePath = %q", cfg.APIBasePath)
	}
	if cfg.PublicBaseURL != "https://gifts.example.org" {
		t.Fatalf("PublicBaseURL = %q (trailing slash must be stripped)", cfg.PublicBaseURL)
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad rate", "RATE_RPS", "-1"},
		{"bad burst", "RATE_BURST", "0"},
		{"bad sample ratio", "OTEL_TRACES_SAMPLER_ARG", "1.5"},
		{"bad timeout", "READ_TIMEOUT", "-5s"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(c.key, c.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", c.key, c.value)
			}
		})
	}
}

func TestLoad_CORSList(t *testing.T) {
	setRequired(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Fatalf("origins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestMustLoad_PanicsOnInvalid(t *testing.T) {
	t.Setenv("STRIPE_SECRET_KEY", "")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustLoad()
}
