package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("expected default session TTL 30m, got %s", cfg.SessionTTL)
	}
	if cfg.SlotIntervalMins != 30 {
		t.Errorf("expected default slot interval 30, got %d", cfg.SlotIntervalMins)
	}
	if cfg.EmailProvider != "stub" {
		t.Errorf("expected default email provider stub, got %s", cfg.EmailProvider)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("BOOKING_SESSION_TTL", "10m")
	t.Setenv("USE_MEMORY_QUEUE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://davidbarber.com, https://admin.davidbarber.com")
	t.Setenv("EMAIL_PROVIDER", "SES")

	cfg := Load()

	if cfg.Port != "9999" {
		t.Errorf("expected port 9999, got %s", cfg.Port)
	}
	if cfg.SessionTTL != 10*time.Minute {
		t.Errorf("expected session TTL 10m, got %s", cfg.SessionTTL)
	}
	if !cfg.UseMemoryQueue {
		t.Error("expected memory queue enabled")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://admin.davidbarber.com" {
		t.Errorf("unexpected CORS origins: %v", cfg.CORSAllowedOrigins)
	}
	if cfg.EmailProvider != "ses" {
		t.Errorf("expected email provider normalized to ses, got %s", cfg.EmailProvider)
	}
}

func TestGetEnvAsIntIgnoresGarbage(t *testing.T) {
	t.Setenv("WORKER_COUNT", "not-a-number")
	cfg := Load()
	if cfg.WorkerCount != 2 {
		t.Errorf("expected fallback worker count 2, got %d", cfg.WorkerCount)
	}
}
