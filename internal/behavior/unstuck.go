package behavior

import (
	"context"
	"fmt"
	"time"

	"github.com/dohr-michael/reflex/internal/world"
)

// UnstuckConfig tunes the unstuck mode.
type UnstuckConfig struct {
	Epsilon float64       // movement below this distance counts as stuck
	Window  time.Duration // how long without movement before intervening
	Timeout time.Duration
}

// unstuckMode frees an agent that is supposed to be moving but is not:
// position pinned within epsilon for the whole window while a task owns the
// agent. Idle standing still is fine.
//
// Trigger state is touched only from the tick goroutine.
type unstuckMode struct {
	ModeState
	epsilon float64
	window  time.Duration
	timeout time.Duration

	anchor    world.Vec3
	anchorSet bool
	since     time.Time
}

// NewUnstuckMode builds the unstuck mode. Enabled by default.
func NewUnstuckMode(cfg UnstuckConfig) Mode {
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = 0.5
	}
	if cfg.Window <= 0 {
		cfg.Window = 10 * time.Second
	}
	m := &unstuckMode{
		epsilon: cfg.Epsilon,
		window:  cfg.Window,
		timeout: cfg.Timeout,
	}
	m.SetEnabled(true)
	return m
}

func (m *unstuckMode) Name() string { return "unstuck" }

func (m *unstuckMode) Description() string {
	return "Relocate when stuck in place while a task is running."
}

func (m *unstuckMode) Update(ctx context.Context, ac *AgentContext) error {
	if m.Active() {
		return nil
	}
	if ac.Agent.IsIdle() {
		m.anchorSet = false
		return nil
	}
	pos := ac.Agent.Position()
	now := ac.Clock()
	if !m.anchorSet || pos.Dist(m.anchor) > m.epsilon {
		m.anchor = pos
		m.anchorSet = true
		m.since = now
		return nil
	}
	if now.Sub(m.since) < m.window {
		return nil
	}
	m.anchorSet = false
	trigger := fmt.Sprintf("no movement for %s", m.window)
	_, err := ac.Executor.Dispatch(m, trigger, ac.Skills.Relocate(), m.timeout)
	return err
}
