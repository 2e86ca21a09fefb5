package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg != Default() {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}

	// A default file must have been created for the operator to edit.
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := []byte("addr: \":9000\"\nlog_level: debug\nhandshake_timeout: 2s\nauth_delay: 0s\n")
	if err := os.WriteFile(path, contents, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.LogLevel != "debug" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.HandshakeTimeout != 2*time.Second || cfg.AuthDelay != 0 {
		t.Fatalf("timeouts not applied: %+v", cfg)
	}
	// Unset keys keep their defaults.
	if cfg.MaxMessageBytes != Default().MaxMessageBytes {
		t.Fatalf("max_message_bytes = %d, want default", cfg.MaxMessageBytes)
	}
}
