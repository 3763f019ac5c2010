package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReflexPath_Default(t *testing.T) {
	t.Setenv("REFLEX_PATH", "")

	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatal(err)
	}

	got := ReflexPath()
	want := filepath.Join(home, ".reflex")
	if got != want {
		t.Errorf("ReflexPath() = %q, want %q", got, want)
	}
}

func TestReflexPath_EnvOverride(t *testing.T) {
	t.Setenv("REFLEX_PATH", "/tmp/custom-reflex")

	got := ReflexPath()
	want := "/tmp/custom-reflex"
	if got != want {
		t.Errorf("ReflexPath() = %q, want %q", got, want)
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("REFLEX_PATH", "/tmp/test-reflex")

	got := ConfigPath()
	want := "/tmp/test-reflex/config.jsonc"
	if got != want {
		t.Errorf("ConfigPath() = %q, want %q", got, want)
	}
}

func TestScenarioPath(t *testing.T) {
	t.Setenv("REFLEX_PATH", "/tmp/test-reflex")

	got := ScenarioPath()
	want := "/tmp/test-reflex/scenario.yaml"
	if got != want {
		t.Errorf("ScenarioPath() = %q, want %q", got, want)
	}
}

func TestDotenvPath(t *testing.T) {
	t.Setenv("REFLEX_PATH", "/tmp/test-reflex")

	got := DotenvPath()
	want := "/tmp/test-reflex/.env"
	if got != want {
		t.Errorf("DotenvPath() = %q, want %q", got, want)
	}
}
