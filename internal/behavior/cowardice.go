package behavior

import (
	"context"
	"fmt"
	"time"

	"github.com/dohr-michael/reflex/internal/world"
)

// CowardiceConfig tunes the cowardice mode.
type CowardiceConfig struct {
	Patterns  []string // hostile kinds to run from
	Radius    float64
	MinHealth float64 // only flee below this health, 0 = always flee
	Timeout   time.Duration
}

// cowardiceMode runs away from hostiles instead of fighting. Sits above
// self_defense in priority so that, when both are enabled, flight wins.
type cowardiceMode struct {
	ModeState
	matcher   *kindMatcher
	radius    float64
	minHealth float64
	timeout   time.Duration
}

// NewCowardiceMode builds the cowardice mode. Disabled by default.
func NewCowardiceMode(cfg CowardiceConfig) (Mode, error) {
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = []string{"**"}
	}
	if cfg.Radius <= 0 {
		cfg.Radius = 16
	}
	matcher, err := newKindMatcher(cfg.Patterns)
	if err != nil {
		return nil, fmt.Errorf("cowardice: %w", err)
	}
	m := &cowardiceMode{
		matcher:   matcher,
		radius:    cfg.Radius,
		minHealth: cfg.MinHealth,
		timeout:   cfg.Timeout,
	}
	m.SetEnabled(false)
	return m, nil
}

func (m *cowardiceMode) Name() string { return "cowardice" }

func (m *cowardiceMode) Description() string {
	return "Flee from nearby hostiles instead of engaging."
}

func (m *cowardiceMode) Update(ctx context.Context, ac *AgentContext) error {
	if m.Active() {
		return nil
	}
	if m.minHealth > 0 && ac.Agent.Health() >= m.minHealth {
		return nil
	}
	ent, ok := ac.Sensor.NearestEntity(func(e world.Entity) bool {
		return e.Hostile && m.matcher.Match(e.Kind)
	}, m.radius)
	if !ok {
		return nil
	}
	dist := ac.Agent.Position().Dist(ent.Pos)
	trigger := fmt.Sprintf("fleeing %s at %.1fm", ent.Kind, dist)
	_, err := ac.Executor.Dispatch(m, trigger, ac.Skills.Flee(ent), m.timeout)
	return err
}
