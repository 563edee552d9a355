package app

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.AppAddr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.AppAddr)
	}
	if cfg.OperatorTokenTTL != 8*time.Hour {
		t.Fatalf("unexpected operator ttl %v", cfg.OperatorTokenTTL)
	}
	if cfg.BcryptCost != 12 {
		t.Fatalf("unexpected bcrypt cost %d", cfg.BcryptCost)
	}
	if cfg.OperatorRangeMin != 1 || cfg.OperatorRangeMax != 999 {
		t.Fatalf("unexpected operator range [%d,%d]", cfg.OperatorRangeMin, cfg.OperatorRangeMax)
	}
	if cfg.MemberRangeMin != 1000 || cfg.MemberRangeMax != 999999 {
		t.Fatalf("unexpected member range [%d,%d]", cfg.MemberRangeMin, cfg.MemberRangeMax)
	}
	if cfg.AuditStrict {
		t.Fatal("audit strict must default off")
	}
	if cfg.IsProduction() {
		t.Fatal("development must not report production")
	}
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestLoadConfigValidatesBcryptCost(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("BCRYPT_COST", "4")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for out-of-window bcrypt cost")
	}
}

func TestIsProduction(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("APP_ENV", "production")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.IsProduction() {
		t.Fatal("expected production")
	}
}
