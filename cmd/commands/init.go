package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/reflex/internal/config"
)

// NewInitCommand returns the scaffolding subcommand.
func NewInitCommand() *cli.Command {
	return &cli.Command{
		Name:   "init",
		Usage:  "Initialize the reflex home directory (~/.reflex)",
		Action: runInit,
	}
}

func runInit(_ context.Context, _ *cli.Command) error {
	root := config.ReflexPath()
	created := false

	// Ensure directories exist.
	dirs := []string{
		root,
		filepath.Join(root, "logs"),
	}
	for _, d := range dirs {
		if _, err := os.Stat(d); err != nil {
			if err := os.MkdirAll(d, 0o755); err != nil {
				return fmt.Errorf("create dir %s: %w", d, err)
			}
			fmt.Printf("  Created %s\n", d)
			created = true
		}
	}

	// Write default config if missing.
	configPath := config.ConfigPath()
	if _, err := os.Stat(configPath); err != nil {
		if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("  Created %s\n", configPath)
		created = true
	}

	// Write default scenario if missing.
	scenarioPath := config.ScenarioPath()
	if _, err := os.Stat(scenarioPath); err != nil {
		if err := os.WriteFile(scenarioPath, []byte(defaultScenario), 0o644); err != nil {
			return fmt.Errorf("write scenario: %w", err)
		}
		fmt.Printf("  Created %s\n", scenarioPath)
		created = true
	}

	// Write default .env if missing.
	dotenvPath := config.DotenvPath()
	if _, err := os.Stat(dotenvPath); err != nil {
		if err := os.WriteFile(dotenvPath, []byte(defaultDotenv), 0o600); err != nil {
			return fmt.Errorf("write .env: %w", err)
		}
		fmt.Printf("  Created %s\n", dotenvPath)
		created = true
	}

	if !created {
		fmt.Printf("Already initialized — %s is complete. Nothing to do.\n", root)
		return nil
	}

	fmt.Println(initMessage(root))
	return nil
}

const defaultConfig = `{
	// Reflex configuration
	// Relative data paths resolve under the reflex home (default ~/.reflex,
	// override with REFLEX_PATH).

	"tick_interval": "250ms",
	"pause_warn": "1m",

	"world": {
		// "scenario": "/path/to/scenario.yaml",  // default: <home>/scenario.yaml
		"step_interval": "100ms",
		"speed": 4.0
		// "seed": 42  // fixed seed for reproducible runs, 0 = time-seeded
	},

	"gateway": {
		"host": "127.0.0.1",
		"port": 18520
	},

	"events": {
		"buffer_size": 1024,
		"log_level": "info"
	},

	"journal": {
		"path": "reflex.db"
	},

	"event_log": {
		"path": "events.jsonl",
		"max_size_mb": 16
	},

	"modes": {
		// Override each mode's default on/off state by name.
		"enabled": {
			// "hunting": true,
			// "torch_placing": false
		},

		"self_defense": {
			"patterns": ["zombie", "skeleton", "*spider", "creeper"],
			"radius": 8
		},

		"item_collecting": {
			"dwell": "2s"
		}

		// "cowardice": { "patterns": ["**"], "radius": 16, "min_health": 8 },
		// "idle_staring": { "radius": 10, "switch_chance": 0.3 }
	}
}
`

const defaultScenario = `# Reflex demo scenario. The daemon steps this world on a fixed clock and
# the behavior controller reacts to what happens in it.
name: meadow
description: Open meadow with passive animals, a lava pool and timed hostile spawns.

agent:
  position: {x: 0, y: 64, z: 0}
  health: 20

entities:
  - id: cow-1
    kind: cow
    position: {x: 6, y: 64, z: 2}
    speed: 1.0
  - id: sheep-1
    kind: sheep
    position: {x: -5, y: 64, z: 4}
    speed: 1.0
  - id: drop-1
    kind: item/oak_log
    position: {x: 3, y: 64, z: -2}

blocks:
  - kind: lava
    position: {x: 14, y: 64, z: 9}

spawns:
  - after: 45s
    entity:
      id: zombie-1
      kind: zombie
      position: {x: 10, y: 64, z: 10}
      hostile: true
      speed: 1.6
  - after: 2m
    entity:
      id: skeleton-1
      kind: skeleton
      position: {x: -12, y: 64, z: -8}
      hostile: true
      speed: 1.4
`

const defaultDotenv = `# Reflex environment variables
# This file is loaded automatically. Existing env vars are never overridden.

# REFLEX_PATH=/var/lib/reflex
# Referenced from config via ${{ .Env.NAME }} templates:
# REFLEX_SCENARIO=/path/to/scenario.yaml
`

func initMessage(root string) string {
	return fmt.Sprintf(`
  Reflex home set up at %s

  Next steps:
    1. Tweak %s/config.jsonc (mode tuning, gateway port)
    2. Edit %s/scenario.yaml to change the demo world
    3. Run: reflex run

  Then watch it behave: reflex watch
`, root, root, root)
}
