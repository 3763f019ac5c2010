package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotenv(t *testing.T) {
	content := `# Gateway overrides
REFLEX_HOST=localhost
REFLEX_PORT=18520

# Quoted values
REFLEX_TOKEN="tok-secret-value"
REFLEX_LABEL='single-quoted'

# Spaces around =
REFLEX_SPACED = spaced_value
`

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	// Clear any existing values.
	for _, k := range []string{"REFLEX_HOST", "REFLEX_PORT", "REFLEX_TOKEN", "REFLEX_LABEL", "REFLEX_SPACED"} {
		os.Unsetenv(k)
	}

	if err := LoadDotenv(path); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		key, want string
	}{
		{"REFLEX_HOST", "localhost"},
		{"REFLEX_PORT", "18520"},
		{"REFLEX_TOKEN", "tok-secret-value"},
		{"REFLEX_LABEL", "single-quoted"},
		{"REFLEX_SPACED", "spaced_value"},
	}

	for _, tt := range tests {
		got := os.Getenv(tt.key)
		if got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestLoadDotenvNoOverride(t *testing.T) {
	content := `EXISTING_VAR=new-value`
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("EXISTING_VAR", "original")

	if err := LoadDotenv(path); err != nil {
		t.Fatal(err)
	}

	if got := os.Getenv("EXISTING_VAR"); got != "original" {
		t.Errorf("expected existing var to be preserved, got %q", got)
	}
}

func TestLoadDotenvMissingFile(t *testing.T) {
	err := LoadDotenv("/nonexistent/.env")
	if err != nil {
		t.Errorf("missing file should be silently ignored, got: %v", err)
	}
}

func TestParseDotenvLine(t *testing.T) {
	cases := []struct {
		line       string
		key, value string
		ok         bool
	}{
		{"KEY=value", "KEY", "value", true},
		{`KEY="quoted"`, "KEY", "quoted", true},
		{"  KEY = value  ", "KEY", "value", true},
		{"# comment", "", "", false},
		{"", "", "", false},
		{"no-equals-here", "", "", false},
	}
	for _, tt := range cases {
		key, value, ok := parseDotenvLine(tt.line)
		if key != tt.key || value != tt.value || ok != tt.ok {
			t.Errorf("parseDotenvLine(%q) = %q, %q, %v", tt.line, key, value, ok)
		}
	}
}
