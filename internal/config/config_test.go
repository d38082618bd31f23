package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOOP_GUARD_CAP", "")
	t.Setenv("MAX_OFFERED_SLOTS", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.LoopGuardCap != 12 {
		t.Fatalf("expected default loop guard cap, got %d", cfg.LoopGuardCap)
	}
	if cfg.MaxOfferedSlots != 3 {
		t.Fatalf("expected default max offered slots, got %d", cfg.MaxOfferedSlots)
	}
	if cfg.CRMTimeout != 15*time.Second {
		t.Fatalf("expected default CRM timeout, got %s", cfg.CRMTimeout)
	}
	if cfg.EmailProvider != "ses" {
		t.Fatalf("expected default email provider, got %s", cfg.EmailProvider)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("LOOP_GUARD_CAP", "20")
	t.Setenv("CRM_DRY_RUN", "true")
	t.Setenv("CRM_TIMEOUT", "30s")
	t.Setenv("EMAIL_PROVIDER", " SendGrid ")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.LoopGuardCap != 20 {
		t.Fatalf("expected loop guard override, got %d", cfg.LoopGuardCap)
	}
	if !cfg.CRMDryRun {
		t.Fatal("expected CRM dry run enabled")
	}
	if cfg.CRMTimeout != 30*time.Second {
		t.Fatalf("expected CRM timeout override, got %s", cfg.CRMTimeout)
	}
	if cfg.EmailProvider != "sendgrid" {
		t.Fatalf("expected normalized email provider, got %s", cfg.EmailProvider)
	}
}
