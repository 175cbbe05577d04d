package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config is layered: struct defaults, then an optional YAML file, then
// ALMA_-prefixed environment variables. Immutable after Load.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Media     MediaConfig     `koanf:"media"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type MediaConfig struct {
	IntroPath    string `koanf:"intro_path"`
	OutroPath    string `koanf:"outro_path"`
	IntroSeconds int    `koanf:"intro_seconds"`
	OutroSeconds int    `koanf:"outro_seconds"`
}

type SchedulerConfig struct {
	// StartTime is the daily trigger in HH:MM local time; empty disables
	// the loop.
	StartTime string `koanf:"start_time"`

	TargetMinutes    int `koanf:"target_minutes"`
	ToleranceSeconds int `koanf:"tolerance_seconds"`
	MinEpisodes      int `koanf:"min_episodes"`
	MaxEpisodes      int `koanf:"max_episodes"`

	CooldownDays       int     `koanf:"cooldown_days"`
	HalfLifeDays       float64 `koanf:"half_life_days"`
	LikedBonus         float64 `koanf:"liked_bonus"`
	RequestMultiplier  float64 `koanf:"request_multiplier"`
	FreshnessAfterDays int     `koanf:"freshness_after_days"`
	FreshnessCap       float64 `koanf:"freshness_cap"`
	DiversityRetries   int     `koanf:"diversity_retries"`

	RequestsBypassCooldown   bool `koanf:"requests_bypass_cooldown"`
	RelaxCooldownOnShortfall bool `koanf:"relax_cooldown_on_shortfall"`

	// KeywordMap maps request shorthand ("blue") to a series name.
	KeywordMap map[string]string `koanf:"keyword_map"`
}

type LoggingConfig struct {
	Level string `koanf:"level"`
}

var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/alma/config.yaml",
	"/etc/alma/config.yml",
}

const ConfigPathEnvVar = "ALMA_CONFIG"

func defaults() *Config {
	return &Config{
		Server:   ServerConfig{Addr: "127.0.0.1:8080"},
		Database: DatabaseConfig{Path: "alma.db"},
		Media:    MediaConfig{},
		Scheduler: SchedulerConfig{
			StartTime:              "19:00",
			TargetMinutes:          30,
			ToleranceSeconds:       60,
			MinEpisodes:            3,
			MaxEpisodes:            5,
			CooldownDays:           14,
			HalfLifeDays:           7,
			LikedBonus:             0.5,
			RequestMultiplier:      3.0,
			FreshnessAfterDays:     14,
			FreshnessCap:           0.5,
			DiversityRetries:       4,
			RequestsBypassCooldown: true,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load builds the config: defaults, then the first config file found
// (or $ALMA_CONFIG), then environment variables (ALMA_SERVER_ADDR ->
// server.addr).
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("ALMA_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "ALMA_")
		s = strings.ToLower(s)
		// First underscore splits section from key; keys keep theirs
		// (ALMA_SCHEDULER_COOLDOWN_DAYS -> scheduler.cooldown_days).
		return strings.Replace(s, "_", ".", 1)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (c *Config) Validate() error {
	if c.Scheduler.StartTime != "" {
		if _, _, err := c.Scheduler.StartClock(); err != nil {
			return err
		}
	}
	s := c.Scheduler
	if s.TargetMinutes < 5 || s.TargetMinutes > 120 {
		return fmt.Errorf("scheduler.target_minutes %d out of range [5,120]", s.TargetMinutes)
	}
	if s.ToleranceSeconds <= 0 {
		return fmt.Errorf("scheduler.tolerance_seconds must be positive")
	}
	if s.MinEpisodes < 1 || s.MaxEpisodes < s.MinEpisodes {
		return fmt.Errorf("scheduler episode bounds invalid: min %d, max %d", s.MinEpisodes, s.MaxEpisodes)
	}
	if s.CooldownDays < 0 {
		return fmt.Errorf("scheduler.cooldown_days must not be negative")
	}
	if s.HalfLifeDays <= 0 {
		return fmt.Errorf("scheduler.half_life_days must be positive")
	}
	return nil
}

// StartClock parses StartTime into hour and minute.
func (s SchedulerConfig) StartClock() (int, int, error) {
	t, err := time.Parse("15:04", s.StartTime)
	if err != nil {
		return 0, 0, fmt.Errorf("scheduler.start_time %q not HH:MM", s.StartTime)
	}
	return t.Hour(), t.Minute(), nil
}
