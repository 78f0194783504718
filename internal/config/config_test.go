package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.HTTPAddr != ":8080" {
		t.Errorf("unexpected addresses %q %q", cfg.Addr, cfg.HTTPAddr)
	}
	if cfg.IdleTimeout != 30*time.Minute || cfg.LookupTimeout != 5*time.Second {
		t.Errorf("unexpected durations %v %v", cfg.IdleTimeout, cfg.LookupTimeout)
	}
	if !cfg.Discovery || cfg.DiscoveryPort != 9998 {
		t.Errorf("discovery should default on at 9998")
	}

	g := cfg.GameConfig()
	if g.StartingHP != 12 || g.MovesPerTurn != 4 || g.ActionsPerTurn != 2 || g.ThrowRange != 5 || g.MaxFighters != 4 {
		t.Errorf("unexpected game config %+v", g)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ARENA_ADDR", "127.0.0.1:7000")
	t.Setenv("ARENA_ADMINS", "u1,u2")
	t.Setenv("ARENA_IDLE_TIMEOUT", "90s")
	t.Setenv("ARENA_RULES_STARTING_HP", "20")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != "127.0.0.1:7000" || cfg.IdleTimeout != 90*time.Second {
		t.Errorf("env not applied: %+v", cfg)
	}
	if len(cfg.Admins) != 2 || cfg.Admins[1] != "u2" {
		t.Errorf("admins %v", cfg.Admins)
	}
	if cfg.GameConfig().StartingHP != 20 {
		t.Errorf("rules override not applied")
	}
}

func TestLoadDotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arena.env")
	if err := os.WriteFile(path, []byte("ARENA_NAME=lan-party\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	// Registered with Setenv so it is cleared after the test.
	t.Setenv("ARENA_NAME", "")
	os.Unsetenv("ARENA_NAME")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerName != "lan-party" {
		t.Errorf("expected name from file, got %q", cfg.ServerName)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"ARENA_DISCOVERY_PORT", "not-an-int", "parse env:"},
		{"ARENA_RULES_STARTING_HP", "0", "starting hp"},
		{"ARENA_RULES_ACTIONS_PER_TURN", "0", "actions per turn"},
		{"ARENA_REAP_INTERVAL", "0s", "reap interval must be positive"},
		{"ARENA_IDLE_TIMEOUT", "-1m", "idle timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
