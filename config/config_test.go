package config

import "testing"

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("BOOKSTORE_DB", "/tmp/ledger-test.db")
	t.Setenv("BOOKSTORE_LOG_MODE", "production")

	cfg := Load()
	if cfg.DBPath != "/tmp/ledger-test.db" {
		t.Fatalf("want db path from env, got %q", cfg.DBPath)
	}
	if cfg.LogMode != "production" {
		t.Fatalf("want log mode from env, got %q", cfg.LogMode)
	}
}

func TestGetEnvDefault(t *testing.T) {
	if got := GetEnv("BOOKSTORE_NO_SUCH_KEY", "fallback"); got != "fallback" {
		t.Fatalf("want fallback for unset key, got %q", got)
	}
}
