package behavior

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/dohr-michael/reflex/internal/world"
)

// IdleStaringConfig tunes the idle_staring mode.
type IdleStaringConfig struct {
	Radius       float64       // how far to notice stare targets
	SwitchChance float64       // probability of staring after a gaze shift
	MinDwell     time.Duration // shortest hold between gaze shifts
	MaxDwell     time.Duration // longest hold between gaze shifts
	Seed         uint64        // 0 = time-seeded
}

// idleStaringMode is cosmetic: while idle it moves the agent's gaze, watching
// whatever wanders close or drifting to random directions. Nothing goes
// through the executor; active is a marker only, and it drops the instant a
// task claims the agent (Active is derived from the idle predicate, not just
// the flag, so a higher mode activating in the same tick never sees two
// actives).
//
// Trigger state is touched only from the tick goroutine.
type idleStaringMode struct {
	ModeState
	agent        Agent
	radius       float64
	switchChance float64
	minDwell     time.Duration
	maxDwell     time.Duration
	rng          *rand.Rand

	staring      bool
	lastEntityID string
	nextShift    time.Time
}

// NewIdleStaringMode builds the idle_staring mode. Enabled by default.
func NewIdleStaringMode(cfg IdleStaringConfig, agent Agent) Mode {
	if cfg.Radius <= 0 {
		cfg.Radius = 10
	}
	if cfg.SwitchChance <= 0 {
		cfg.SwitchChance = 0.3
	}
	if cfg.MinDwell <= 0 {
		cfg.MinDwell = 2 * time.Second
	}
	if cfg.MaxDwell <= cfg.MinDwell {
		cfg.MaxDwell = cfg.MinDwell + 10*time.Second
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	m := &idleStaringMode{
		agent:        agent,
		radius:       cfg.Radius,
		switchChance: cfg.SwitchChance,
		minDwell:     cfg.MinDwell,
		maxDwell:     cfg.MaxDwell,
		rng:          rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	m.SetEnabled(true)
	return m
}

func (m *idleStaringMode) Name() string { return "idle_staring" }

func (m *idleStaringMode) Description() string {
	return "Look around at nearby creatures while idle."
}

// Active mirrors the idle predicate so the marker clears the moment the agent
// stops being idle, not on the next update.
func (m *idleStaringMode) Active() bool {
	return m.ModeState.Active() && m.agent.IsIdle()
}

func (m *idleStaringMode) Update(ctx context.Context, ac *AgentContext) error {
	if !ac.Agent.IsIdle() {
		m.SetActive(false)
		m.staring = false
		m.lastEntityID = ""
		return nil
	}
	m.SetActive(true)

	now := ac.Clock()
	ent, ok := ac.Sensor.NearestEntity(func(e world.Entity) bool {
		return !e.IsItem()
	}, m.radius)

	if ok {
		if ent.ID != m.lastEntityID {
			m.lastEntityID = ent.ID
			m.staring = true
			m.nextShift = now.Add(m.randDwell())
		}
		if m.staring {
			ac.Agent.LookAt(world.Vec3{X: ent.Pos.X, Y: ent.Pos.Y + 1.6, Z: ent.Pos.Z})
		}
	} else {
		m.lastEntityID = ""
	}

	if now.After(m.nextShift) {
		m.staring = ok && m.rng.Float64() < m.switchChance
		if !m.staring {
			yaw := m.rng.Float64() * 2 * math.Pi
			pos := ac.Agent.Position()
			ac.Agent.LookAt(world.Vec3{
				X: pos.X + math.Cos(yaw)*8,
				Y: pos.Y + 1.6,
				Z: pos.Z + math.Sin(yaw)*8,
			})
		}
		m.nextShift = now.Add(m.randDwell())
	}
	return nil
}

func (m *idleStaringMode) randDwell() time.Duration {
	spread := m.maxDwell - m.minDwell
	return m.minDwell + time.Duration(m.rng.Int64N(int64(spread)))
}
