package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:8080" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Scheduler.TargetMinutes != 30 || cfg.Scheduler.MinEpisodes != 3 || cfg.Scheduler.MaxEpisodes != 5 {
		t.Fatalf("scheduler defaults = %+v", cfg.Scheduler)
	}
	if !cfg.Scheduler.RequestsBypassCooldown {
		t.Fatal("requests_bypass_cooldown should default to true")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ALMA_SERVER_ADDR", "0.0.0.0:9999")
	t.Setenv("ALMA_SCHEDULER_COOLDOWN_DAYS", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != "0.0.0.0:9999" {
		t.Fatalf("addr = %q, env override lost", cfg.Server.Addr)
	}
	if cfg.Scheduler.CooldownDays != 7 {
		t.Fatalf("cooldown = %d, want 7", cfg.Scheduler.CooldownDays)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alma.yaml")
	yaml := "server:\n  addr: 127.0.0.1:7070\nscheduler:\n  start_time: \"18:30\"\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:7070" {
		t.Fatalf("addr = %q, file override lost", cfg.Server.Addr)
	}
	h, m, err := cfg.Scheduler.StartClock()
	if err != nil {
		t.Fatalf("StartClock: %v", err)
	}
	if h != 18 || m != 30 {
		t.Fatalf("start = %02d:%02d, want 18:30", h, m)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := defaults()
	cfg.Scheduler.StartTime = "25:99"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected a start time error")
	}

	cfg = defaults()
	cfg.Scheduler.MinEpisodes = 5
	cfg.Scheduler.MaxEpisodes = 3
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an episode bounds error")
	}

	cfg = defaults()
	cfg.Scheduler.TargetMinutes = 600
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected a target range error")
	}
}
