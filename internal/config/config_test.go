package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/simlar")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxRequestsPerIPPerHour != 60 || cfg.MaxRequestsTotalPerHour != 220 {
		t.Fatalf("unexpected hourly defaults: %+v", cfg)
	}
	if cfg.CallDelayMin != 90*time.Second || cfg.CallDelayMax != 10*time.Minute {
		t.Fatalf("unexpected call window defaults: %+v", cfg)
	}
	if cfg.RegistrationCodeExpiry != 15*time.Minute {
		t.Fatalf("unexpected code expiry: %s", cfg.RegistrationCodeExpiry)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/simlar")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("MAX_CONFIRM_TRIES", "5")
	t.Setenv("CALL_DELAY_MIN", "30s")
	t.Setenv("REGIONAL_LIMITS", "49=160, 1=200")
	t.Setenv("TEST_ACCOUNTS", "*15005550006*=123456")
	t.Setenv("ALERT_RECIPIENTS", "ops@example.org, oncall@example.org")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxConfirmTries != 5 {
		t.Fatalf("MaxConfirmTries = %d", cfg.MaxConfirmTries)
	}
	if cfg.CallDelayMin != 30*time.Second {
		t.Fatalf("CallDelayMin = %s", cfg.CallDelayMin)
	}
	if len(cfg.RegionalLimits) != 2 || cfg.RegionalLimits[0].Prefix != "49" || cfg.RegionalLimits[1].MaxRequestsPerHour != 200 {
		t.Fatalf("RegionalLimits = %+v", cfg.RegionalLimits)
	}
	if cfg.TestAccounts["*15005550006*"] != "123456" {
		t.Fatalf("TestAccounts = %+v", cfg.TestAccounts)
	}
	if len(cfg.AlertRecipients) != 2 {
		t.Fatalf("AlertRecipients = %+v", cfg.AlertRecipients)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/simlar")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	t.Setenv("MAX_CALLS_PER_DAY", "three")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid integer")
	}
	t.Setenv("MAX_CALLS_PER_DAY", "3")

	t.Setenv("REGIONAL_LIMITS", "49")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed regional limit")
	}
	t.Setenv("REGIONAL_LIMITS", "")

	t.Setenv("CALL_DELAY_MIN", "20m")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when min exceeds max")
	}
}
