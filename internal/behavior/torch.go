package behavior

import (
	"context"
	"fmt"
	"time"
)

// TorchPlacingConfig tunes the torch_placing mode.
type TorchPlacingConfig struct {
	Radius   float64       // how far to look for an existing torch
	Interval time.Duration // minimum time between placements
	Timeout  time.Duration
}

// torchPlacingMode keeps the area lit: when idle and no torch is in range,
// place one. The interval stops it from carpeting the ground after failures.
type torchPlacingMode struct {
	ModeState
	radius   float64
	interval time.Duration
	timeout  time.Duration

	lastPlaced time.Time
}

// NewTorchPlacingMode builds the torch_placing mode. Enabled by default.
func NewTorchPlacingMode(cfg TorchPlacingConfig) Mode {
	if cfg.Radius <= 0 {
		cfg.Radius = 16
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	m := &torchPlacingMode{
		radius:   cfg.Radius,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
	}
	m.SetEnabled(true)
	return m
}

func (m *torchPlacingMode) Name() string { return "torch_placing" }

func (m *torchPlacingMode) Description() string {
	return "Place a torch when idle and none is nearby."
}

func (m *torchPlacingMode) Update(ctx context.Context, ac *AgentContext) error {
	if m.Active() {
		return nil
	}
	if !ac.Agent.IsIdle() {
		return nil
	}
	now := ac.Clock()
	if !m.lastPlaced.IsZero() && now.Sub(m.lastPlaced) < m.interval {
		return nil
	}
	if _, ok := ac.Sensor.NearestBlock("torch", m.radius); ok {
		return nil
	}
	m.lastPlaced = now
	trigger := fmt.Sprintf("no torch within %.0f blocks", m.radius)
	_, err := ac.Executor.Dispatch(m, trigger, ac.Skills.PlaceTorch(ac.Agent.Position()), m.timeout)
	return err
}
