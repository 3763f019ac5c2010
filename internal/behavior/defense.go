package behavior

import (
	"context"
	"fmt"
	"time"

	"github.com/dohr-michael/reflex/internal/world"
)

// SelfDefenseConfig tunes the self_defense mode.
type SelfDefenseConfig struct {
	Patterns []string      // hostile kinds to engage
	Radius   float64       // sense radius in blocks
	Timeout  time.Duration // action bound, 0 = none
}

// selfDefenseMode fights back when a hostile gets close enough and a clear
// approach path exists. Interrupt-class: fires whether or not the agent is
// busy with a task.
type selfDefenseMode struct {
	ModeState
	matcher *kindMatcher
	radius  float64
	timeout time.Duration
}

// NewSelfDefenseMode builds the self_defense mode. Enabled by default.
func NewSelfDefenseMode(cfg SelfDefenseConfig) (Mode, error) {
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = []string{"zombie", "skeleton", "*spider", "creeper"}
	}
	if cfg.Radius <= 0 {
		cfg.Radius = 8
	}
	matcher, err := newKindMatcher(cfg.Patterns)
	if err != nil {
		return nil, fmt.Errorf("self_defense: %w", err)
	}
	m := &selfDefenseMode{
		matcher: matcher,
		radius:  cfg.Radius,
		timeout: cfg.Timeout,
	}
	m.SetEnabled(true)
	return m, nil
}

func (m *selfDefenseMode) Name() string { return "self_defense" }

func (m *selfDefenseMode) Description() string {
	return "Fight back against nearby hostiles when a clear path to them exists."
}

func (m *selfDefenseMode) Update(ctx context.Context, ac *AgentContext) error {
	if m.Active() {
		return nil
	}
	ent, ok := ac.Sensor.NearestEntity(func(e world.Entity) bool {
		return e.Hostile && m.matcher.Match(e.Kind)
	}, m.radius)
	if !ok {
		return nil
	}
	clear, err := ac.Sensor.ClearPath(ctx, ent.Pos)
	if err != nil {
		return fmt.Errorf("clear path to %s: %w", ent.Kind, err)
	}
	if !clear {
		return nil
	}
	dist := ac.Agent.Position().Dist(ent.Pos)
	trigger := fmt.Sprintf("hostile %s at %.1fm", ent.Kind, dist)
	_, err = ac.Executor.Dispatch(m, trigger, ac.Skills.Defend(ent), m.timeout)
	return err
}
