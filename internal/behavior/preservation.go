package behavior

import (
	"context"
	"fmt"
	"time"
)

// SelfPreservationConfig tunes the self_preservation mode.
type SelfPreservationConfig struct {
	HazardKinds []string      // block kinds that hurt to stand in
	Radius      float64       // how close counts as "standing in"
	EscapeDist  float64       // how far to move away
	Timeout     time.Duration
}

// selfPreservationMode gets the agent out of hazardous blocks. Top priority,
// interrupt-class: drowning does not wait for the current task to finish.
type selfPreservationMode struct {
	ModeState
	kinds   []string
	radius  float64
	escape  float64
	timeout time.Duration
}

// NewSelfPreservationMode builds the self_preservation mode. Enabled by default.
func NewSelfPreservationMode(cfg SelfPreservationConfig) Mode {
	if len(cfg.HazardKinds) == 0 {
		cfg.HazardKinds = []string{"lava", "fire", "water"}
	}
	if cfg.Radius <= 0 {
		cfg.Radius = 1.5
	}
	if cfg.EscapeDist <= 0 {
		cfg.EscapeDist = 4
	}
	m := &selfPreservationMode{
		kinds:   cfg.HazardKinds,
		radius:  cfg.Radius,
		escape:  cfg.EscapeDist,
		timeout: cfg.Timeout,
	}
	m.SetEnabled(true)
	return m
}

func (m *selfPreservationMode) Name() string { return "self_preservation" }

func (m *selfPreservationMode) Description() string {
	return "Move out of lava, fire or water before taking damage."
}

func (m *selfPreservationMode) Update(ctx context.Context, ac *AgentContext) error {
	if m.Active() {
		return nil
	}
	for _, kind := range m.kinds {
		blk, ok := ac.Sensor.NearestBlock(kind, m.radius)
		if !ok {
			continue
		}
		trigger := fmt.Sprintf("standing in %s", blk.Kind)
		_, err := ac.Executor.Dispatch(m, trigger, ac.Skills.MoveAway(m.escape), m.timeout)
		return err
	}
	return nil
}
