package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/iho/gowallet/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.WalletLockTimeout != 5*time.Second {
		t.Fatalf("expected default lock timeout 5s, got %s", cfg.WalletLockTimeout)
	}

	if cfg.EventsChannel != "wallet.events" {
		t.Fatalf("expected default events channel, got %s", cfg.EventsChannel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("REDIS_POOL_SIZE", "40")
	t.Setenv("REDIS_TIMEOUT", "2s")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("WALLET_LOCK_TIMEOUT", "750ms")
	t.Setenv("RECONCILE_PENDING_AGE", "15m")
	t.Setenv("MIGRATE_ON_START", "false")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.RedisPoolSize != 40 || cfg.RedisTimeout != 2*time.Second {
		t.Fatalf("expected redis overrides, got pool=%d timeout=%s", cfg.RedisPoolSize, cfg.RedisTimeout)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.WalletLockTimeout != 750*time.Millisecond {
		t.Fatalf("expected lock timeout override, got %s", cfg.WalletLockTimeout)
	}

	if cfg.ReconcilePendingAge != 15*time.Minute || cfg.MigrateOnStart {
		t.Fatalf("expected worker overrides, got age=%s migrate=%v", cfg.ReconcilePendingAge, cfg.MigrateOnStart)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	original := os.Getenv("HTTP_READ_TIMEOUT")
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
	t.Cleanup(func() {
		t.Setenv("HTTP_READ_TIMEOUT", original)
	})

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *config.Config) {}},
		{name: "zero lock timeout", mutate: func(c *config.Config) { c.WalletLockTimeout = 0 }, wantErr: true},
		{name: "transaction shorter than lock", mutate: func(c *config.Config) { c.TransactionTimeout = time.Second }, wantErr: true},
		{name: "zero pending age", mutate: func(c *config.Config) { c.ReconcilePendingAge = 0 }, wantErr: true},
		{name: "short gateway secret", mutate: func(c *config.Config) { c.GatewayJWTSecret = "short" }, wantErr: true},
		{name: "gateway secret", mutate: func(c *config.Config) { c.GatewayJWTSecret = "0123456789abcdef0123456789abcdef" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &config.Config{
				WalletLockTimeout:   5 * time.Second,
				TransactionTimeout:  10 * time.Second,
				ReconcilePendingAge: 5 * time.Minute,
			}
			tt.mutate(c)

			err := c.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
