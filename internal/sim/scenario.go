package sim

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dohr-michael/reflex/internal/world"
)

// Duration wraps time.Duration for YAML scenarios ("30s", "2m").
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// AgentStart is the agent's initial state.
type AgentStart struct {
	Position world.Vec3 `yaml:"position"`
	Health   float64    `yaml:"health,omitempty"`
}

// Spawn adds an entity once the scenario clock passes After.
type Spawn struct {
	After  Duration     `yaml:"after"`
	Entity world.Entity `yaml:"entity"`
}

// Scenario describes the initial world and its scripted changes.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Agent       AgentStart     `yaml:"agent"`
	Entities    []world.Entity `yaml:"entities,omitempty"`
	Blocks      []world.Block  `yaml:"blocks,omitempty"`
	Spawns      []Spawn        `yaml:"spawns,omitempty"`
}

// LoadScenario reads and parses a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario parses scenario YAML and applies defaults.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("unmarshal scenario: %w", err)
	}
	if sc.Agent.Health <= 0 {
		sc.Agent.Health = 20
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	seen := make(map[string]struct{}, len(s.Entities))
	for _, e := range s.Entities {
		if e.ID == "" || e.Kind == "" {
			return fmt.Errorf("entity needs an id and a kind")
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("duplicate entity id %q", e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	for _, sp := range s.Spawns {
		if sp.Entity.ID == "" || sp.Entity.Kind == "" {
			return fmt.Errorf("spawn entity needs an id and a kind")
		}
	}
	for _, b := range s.Blocks {
		if b.Kind == "" {
			return fmt.Errorf("block needs a kind")
		}
	}
	return nil
}
