package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/tailscale/hujson"
)

var envTemplateRe = regexp.MustCompile(`\$\{\{\s*\.Env\.(\w+)\s*\}\}`)

// Load reads a JSONC config file, expands ${{ .Env.VAR }} templates, strips
// comments, unmarshals it into Config, applies defaults and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variable templates (before stripping, since templates are in strings)
	expanded := expandEnvTemplates(string(data))

	std, err := hujson.Standardize([]byte(expanded))
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(std, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Default returns a config with every default applied, for running without
// a config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// expandEnvTemplates replaces ${{ .Env.VAR }} with the env var value.
func expandEnvTemplates(s string) string {
	return envTemplateRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := envTemplateRe.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		return os.Getenv(parts[1])
	})
}

// applyDefaults fills in zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.TickInterval == 0 {
		cfg.TickInterval = Duration(250 * time.Millisecond)
	}
	if cfg.PauseWarn == 0 {
		cfg.PauseWarn = Duration(time.Minute)
	}
	if cfg.World.Scenario == "" {
		cfg.World.Scenario = ScenarioPath()
	}
	if cfg.World.StepInterval == 0 {
		cfg.World.StepInterval = Duration(100 * time.Millisecond)
	}
	if cfg.Gateway.Host == "" {
		cfg.Gateway.Host = "127.0.0.1"
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = 18520
	}
	if cfg.Events.BufferSize == 0 {
		cfg.Events.BufferSize = 1024
	}
	if cfg.Events.LogLevel == "" {
		cfg.Events.LogLevel = "info"
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = filepath.Join(ReflexPath(), "reflex.db")
	}
	if cfg.EventLog.Path == "" {
		cfg.EventLog.Path = filepath.Join(ReflexPath(), "events.jsonl")
	}
	if cfg.EventLog.MaxSizeMB == 0 {
		cfg.EventLog.MaxSizeMB = 16
	}
	if cfg.Heartbeat.Path == "" {
		cfg.Heartbeat.Path = filepath.Join(ReflexPath(), "heartbeat.json")
	}
	if cfg.Heartbeat.Interval == 0 {
		cfg.Heartbeat.Interval = Duration(30 * time.Second)
	}
}

// validate rejects values that would fail obscurely at wiring time.
func validate(cfg *Config) error {
	if cfg.TickInterval < 0 {
		return fmt.Errorf("tick_interval must be positive")
	}
	if cfg.World.StepInterval < 0 {
		return fmt.Errorf("world.step_interval must be positive")
	}
	if cfg.World.Speed < 0 {
		return fmt.Errorf("world.speed must be positive")
	}
	if cfg.Gateway.Port < 1 || cfg.Gateway.Port > 65535 {
		return fmt.Errorf("gateway.port %d out of range", cfg.Gateway.Port)
	}
	if cfg.EventLog.MaxSizeMB < 1 {
		return fmt.Errorf("event_log.max_size_mb must be at least 1")
	}
	if c := cfg.Modes.IdleStaring.SwitchChance; c < 0 || c > 1 {
		return fmt.Errorf("modes.idle_staring.switch_chance %v not in [0,1]", c)
	}
	return nil
}
