package config

import (
	"os"
	"path/filepath"
)

// ReflexPath returns the root directory for Reflex data.
// It uses $REFLEX_PATH if set, otherwise defaults to ~/.reflex.
func ReflexPath() string {
	if v := os.Getenv("REFLEX_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".reflex")
	}
	return filepath.Join(home, ".reflex")
}

// ConfigPath returns the path to the Reflex config file.
func ConfigPath() string {
	return filepath.Join(ReflexPath(), "config.jsonc")
}

// ScenarioPath returns the path to the default scenario file.
func ScenarioPath() string {
	return filepath.Join(ReflexPath(), "scenario.yaml")
}

// DotenvPath returns the path to the Reflex .env file.
func DotenvPath() string {
	return filepath.Join(ReflexPath(), ".env")
}
