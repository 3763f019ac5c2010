package behavior

import (
	"context"
	"fmt"
	"time"

	"github.com/dohr-michael/reflex/internal/world"
)

// HuntingConfig tunes the hunting mode.
type HuntingConfig struct {
	Patterns []string // huntable kinds
	Radius   float64
	Timeout  time.Duration
}

// huntingMode chases huntable animals while the agent has nothing better to
// do. Idle-gated; re-scans candidates every tick.
type huntingMode struct {
	ModeState
	matcher *kindMatcher
	radius  float64
	timeout time.Duration
}

// NewHuntingMode builds the hunting mode. Disabled by default.
func NewHuntingMode(cfg HuntingConfig) (Mode, error) {
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = []string{"cow", "pig", "chicken", "sheep", "rabbit"}
	}
	if cfg.Radius <= 0 {
		cfg.Radius = 16
	}
	matcher, err := newKindMatcher(cfg.Patterns)
	if err != nil {
		return nil, fmt.Errorf("hunting: %w", err)
	}
	m := &huntingMode{
		matcher: matcher,
		radius:  cfg.Radius,
		timeout: cfg.Timeout,
	}
	m.SetEnabled(false)
	return m, nil
}

func (m *huntingMode) Name() string { return "hunting" }

func (m *huntingMode) Description() string {
	return "Hunt nearby animals when idle."
}

func (m *huntingMode) Update(ctx context.Context, ac *AgentContext) error {
	if m.Active() {
		return nil
	}
	if !ac.Agent.IsIdle() {
		return nil
	}
	ent, ok := ac.Sensor.NearestEntity(func(e world.Entity) bool {
		return !e.Hostile && !e.IsItem() && m.matcher.Match(e.Kind)
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
	trigger := fmt.Sprintf("huntable %s at %.1fm", ent.Kind, dist)
	_, err = ac.Executor.Dispatch(m, trigger, ac.Skills.Hunt(ent), m.timeout)
	return err
}
