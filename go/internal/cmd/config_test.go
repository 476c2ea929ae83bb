package main

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DRAFT_CONFIG", "SNAPSHOT_BACKEND", "SNAPSHOT_PATH", "OUTBOX_ENABLED", "DRAFT_SEED", "BID_TIMER_SEC"} {
		t.Setenv(key, "")
	}
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Port != "8080" || cfg.SnapshotBackend != backendFile || cfg.BidTimer != 30*time.Second {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.Seed != nil || cfg.needsDatabase() {
		t.Fatalf("seed %v, needs database %v", cfg.Seed, cfg.needsDatabase())
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("SNAPSHOT_BACKEND", "Postgres")
	t.Setenv("DRAFT_SEED", "42")
	t.Setenv("BID_TIMER_SEC", "0")
	t.Setenv("OUTBOX_ENABLED", "true")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.SnapshotBackend != backendPostgres || !cfg.OutboxEnabled || !cfg.needsDatabase() {
		t.Fatalf("config = %+v", cfg)
	}
	if cfg.Seed == nil || *cfg.Seed != 42 || cfg.BidTimer != 0 {
		t.Fatalf("seed %v, timer %v", cfg.Seed, cfg.BidTimer)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("SNAPSHOT_BACKEND", "s3")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	t.Setenv("SNAPSHOT_BACKEND", "")
	t.Setenv("DRAFT_SEED", "abc")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error for bad seed")
	}
}
