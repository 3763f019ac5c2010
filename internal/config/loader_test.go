package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	content := `{
	// This is a JSONC comment
	"tick_interval": "100ms",
	"gateway": {
		"host": "0.0.0.0",
		"port": 9999
	},
	"world": {
		"scenario": "${{ .Env.REFLEX_SCENARIO }}",
		"seed": 42
	},
	"modes": {
		"enabled": {
			"hunting": true,
			"torch_placing": false
		},
		"self_defense": {
			"patterns": ["zombie", "*spider"],
			"radius": 6,
			"timeout": "30s"
		}
	}
}`
	path := writeConfig(t, content)
	t.Setenv("REFLEX_SCENARIO", "/tmp/meadow.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.TickInterval.Duration() != 100*time.Millisecond {
		t.Errorf("tick_interval: %v", cfg.TickInterval.Duration())
	}
	if cfg.Gateway.Host != "0.0.0.0" {
		t.Errorf("expected host 0.0.0.0, got %s", cfg.Gateway.Host)
	}
	if cfg.Gateway.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Gateway.Port)
	}
	if cfg.World.Scenario != "/tmp/meadow.yaml" {
		t.Errorf("expected env-expanded scenario, got %s", cfg.World.Scenario)
	}
	if cfg.World.Seed != 42 {
		t.Errorf("expected seed 42, got %d", cfg.World.Seed)
	}
	if v, ok := cfg.Modes.Enabled["hunting"]; !ok || !v {
		t.Error("expected hunting enabled override")
	}
	if v, ok := cfg.Modes.Enabled["torch_placing"]; !ok || v {
		t.Error("expected torch_placing disabled override")
	}
	def := cfg.Modes.SelfDefense
	if len(def.Patterns) != 2 || def.Patterns[1] != "*spider" {
		t.Errorf("self_defense patterns: %v", def.Patterns)
	}
	if def.Radius != 6 {
		t.Errorf("self_defense radius: %v", def.Radius)
	}
	if def.Timeout.Duration() != 30*time.Second {
		t.Errorf("self_defense timeout: %v", def.Timeout.Duration())
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REFLEX_PATH", t.TempDir())
	path := writeConfig(t, `{}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.TickInterval.Duration() != 250*time.Millisecond {
		t.Errorf("expected default tick 250ms, got %v", cfg.TickInterval.Duration())
	}
	if cfg.PauseWarn.Duration() != time.Minute {
		t.Errorf("expected default pause_warn 1m, got %v", cfg.PauseWarn.Duration())
	}
	if cfg.World.StepInterval.Duration() != 100*time.Millisecond {
		t.Errorf("expected default step 100ms, got %v", cfg.World.StepInterval.Duration())
	}
	if cfg.World.Scenario != ScenarioPath() {
		t.Errorf("expected default scenario path, got %s", cfg.World.Scenario)
	}
	if cfg.Gateway.Host != "127.0.0.1" {
		t.Errorf("expected default host 127.0.0.1, got %s", cfg.Gateway.Host)
	}
	if cfg.Gateway.Port != 18520 {
		t.Errorf("expected default port 18520, got %d", cfg.Gateway.Port)
	}
	if cfg.Events.BufferSize != 1024 {
		t.Errorf("expected default buffer 1024, got %d", cfg.Events.BufferSize)
	}
	if cfg.Events.LogLevel != "info" {
		t.Errorf("expected default log_level 'info', got %q", cfg.Events.LogLevel)
	}
	if filepath.Base(cfg.Journal.Path) != "reflex.db" {
		t.Errorf("journal path: %s", cfg.Journal.Path)
	}
	if filepath.Base(cfg.EventLog.Path) != "events.jsonl" {
		t.Errorf("event log path: %s", cfg.EventLog.Path)
	}
	if cfg.EventLog.MaxSizeMB != 16 {
		t.Errorf("expected default max_size_mb 16, got %d", cfg.EventLog.MaxSizeMB)
	}
	if cfg.Heartbeat.Interval.Duration() != 30*time.Second {
		t.Errorf("expected default heartbeat 30s, got %v", cfg.Heartbeat.Interval.Duration())
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"bad port":     `{"gateway": {"port": 99999}}`,
		"bad chance":   `{"modes": {"idle_staring": {"switch_chance": 1.5}}}`,
		"bad size":     `{"event_log": {"max_size_mb": -1}}`,
		"bad duration": `{"tick_interval": "soon"}`,
		"not jsonc":    `{"gateway": `,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, content)
			if _, err := Load(path); err == nil {
				t.Errorf("expected error for %s", name)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.jsonc")
	if err == nil || !strings.Contains(err.Error(), "read config") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestExpandEnvTemplates(t *testing.T) {
	t.Setenv("TEST_KEY", "my-secret")
	result := expandEnvTemplates(`{"key": "${{ .Env.TEST_KEY }}"}`)
	expected := `{"key": "my-secret"}`
	if result != expected {
		t.Errorf("expected %s, got %s", expected, result)
	}
}
