package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "SLOT_GRANULARITY_MINUTES", "COMMIT_TIMEOUT", "CORS_ALLOWED_ORIGINS", "USE_MEMORY_STORE", "SESSION_RATE_PER_MINUTE"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.SlotGranularityMinutes != 15 {
		t.Fatalf("expected 15 minute granularity, got %d", cfg.SlotGranularityMinutes)
	}
	if cfg.BookingHorizonDays != 14 || cfg.ChatDateWindowDays != 30 {
		t.Fatalf("unexpected horizons: %d/%d", cfg.BookingHorizonDays, cfg.ChatDateWindowDays)
	}
	if cfg.CommitTimeout != 10*time.Second {
		t.Fatalf("expected default commit timeout, got %s", cfg.CommitTimeout)
	}
	if cfg.UseMemoryStore {
		t.Fatalf("expected memory store disabled by default")
	}
	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Fatalf("expected no CORS origins, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.SessionRatePerMin != 30 {
		t.Fatalf("expected 30 sessions per minute, got %d", cfg.SessionRatePerMin)
	}
	if cfg.IsProduction() {
		t.Fatalf("development config reported as production")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "Production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("USE_MEMORY_STORE", "true")
	t.Setenv("SLOT_GRANULARITY_MINUTES", "30")
	t.Setenv("COMMIT_TIMEOUT", "3s")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production env")
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if !cfg.UseMemoryStore {
		t.Fatalf("expected memory store override")
	}
	if cfg.SlotGranularityMinutes != 30 {
		t.Fatalf("expected granularity override, got %d", cfg.SlotGranularityMinutes)
	}
	if cfg.CommitTimeout != 3*time.Second || cfg.SessionTTL != time.Hour {
		t.Fatalf("unexpected durations: %s %s", cfg.CommitTimeout, cfg.SessionTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SLOT_GRANULARITY_MINUTES", "abc")
	t.Setenv("COMMIT_TIMEOUT", "soon")
	t.Setenv("REDIS_TLS", "maybe")
	cfg := Load()
	if cfg.SlotGranularityMinutes != 15 {
		t.Fatalf("expected fallback granularity, got %d", cfg.SlotGranularityMinutes)
	}
	if cfg.CommitTimeout != 10*time.Second {
		t.Fatalf("expected fallback timeout, got %s", cfg.CommitTimeout)
	}
	if cfg.RedisTLS {
		t.Fatalf("expected fallback redis tls false")
	}
}
