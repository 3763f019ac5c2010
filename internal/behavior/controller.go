package behavior

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dohr-michael/reflex/internal/events"
)

const (
	// defaultInterval is the tick period when none is configured.
	defaultInterval = 250 * time.Millisecond

	// defaultPauseWarn is how long a mode may stay paused before the
	// controller logs a warning. Pause has no expiry: the sole unpause path
	// is the agent going idle, so an override that never completes keeps
	// modes suppressed forever. The warning makes that visible.
	defaultPauseWarn = time.Minute
)

// ControllerConfig holds the collaborators driving the tick loop.
type ControllerConfig struct {
	Registry *Registry
	Agent    Agent
	Sensor   Sensor
	Skills   Skills
	Executor *Executor
	Bus      *events.Bus   // optional
	Interval time.Duration // tick period, default 250ms
	// PauseWarn bounds how long a mode may sit paused before a warning is
	// logged. Zero means the default; negative disables the warning.
	PauseWarn time.Duration
	Now       func() time.Time
}

type pauseInfo struct {
	since  time.Time
	warned bool
}

// Controller drives the tick loop: auto-unpause on idle, then a priority walk
// that stops at the first active mode. At most one mode is ever active; the
// walk order is the mutual exclusion mechanism, not a lock.
type Controller struct {
	registry  *Registry
	actx      *AgentContext
	bus       *events.Bus
	interval  time.Duration
	pauseWarn time.Duration
	now       func() time.Time

	ticks atomic.Uint64

	pauseMu  sync.Mutex
	pausedAt map[string]*pauseInfo

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a Controller. Registry and Agent are required; the rest may be
// nil for callers that drive Tick manually.
func New(cfg ControllerConfig) (*Controller, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("controller: registry is required")
	}
	if cfg.Agent == nil {
		return nil, fmt.Errorf("controller: agent is required")
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	pauseWarn := cfg.PauseWarn
	if pauseWarn == 0 {
		pauseWarn = defaultPauseWarn
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		registry: cfg.Registry,
		actx: &AgentContext{
			Agent:    cfg.Agent,
			Sensor:   cfg.Sensor,
			Skills:   cfg.Skills,
			Executor: cfg.Executor,
			Now:      now,
		},
		bus:       cfg.Bus,
		interval:  interval,
		pauseWarn: pauseWarn,
		now:       now,
		pausedAt:  make(map[string]*pauseInfo),
	}, nil
}

// Start launches the tick loop.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return fmt.Errorf("controller already started")
	}
	c.started = true

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.loop(loopCtx)

	slog.Info("controller started", "modes", c.registry.Len(), "interval", c.interval)
	c.publish(events.NewTypedEvent(events.SourceController, events.ControllerStartedPayload{
		Modes:    c.registry.Len(),
		Interval: c.interval,
	}))
	return nil
}

// Stop halts the tick loop. In-flight actions keep running; only the
// executor's dispatch timeout can end them.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()

	slog.Info("controller stopped", "ticks", c.ticks.Load())
	c.publish(events.NewTypedEvent(events.SourceController, events.ControllerStoppedPayload{
		Ticks: c.ticks.Load(),
	}))
}

func (c *Controller) loop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// Tick runs one arbitration pass. Must be invoked exactly once per time step
// by a single goroutine; ticks never overlap.
func (c *Controller) Tick(ctx context.Context) {
	c.ticks.Add(1)

	// Idle is the sole unpause path.
	if c.actx.Agent.IsIdle() {
		for _, m := range c.registry.Modes() {
			if m.Paused() {
				m.SetPaused(false)
				c.clearPause(m.Name())
				slog.Info("controller: mode unpaused", "mode", m.Name())
				c.publish(events.NewTypedEvent(events.SourceController, events.ModeUnpausedPayload{
					Mode: m.Name(),
				}))
			}
		}
	}

	// Priority walk. The first mode observed active ends the pass; lower
	// modes are not evaluated at all this tick.
	for _, m := range c.registry.Modes() {
		if m.Enabled() && !m.Paused() {
			if err := m.Update(ctx, c.actx); err != nil {
				if errors.Is(err, ErrBusy) {
					// A lower mode's action holds the agent; the trigger
					// fires again once it settles.
					slog.Debug("controller: trigger suppressed", "mode", m.Name())
				} else {
					slog.Warn("controller: trigger evaluation failed", "mode", m.Name(), "error", err)
				}
			}
		}
		if m.Active() {
			break
		}
	}

	c.checkLongPaused()
}

// Ticks returns how many arbitration passes have run.
func (c *Controller) Ticks() uint64 {
	return c.ticks.Load()
}

// ActiveMode returns the name of the currently active mode, or "".
func (c *Controller) ActiveMode() string {
	for _, m := range c.registry.Modes() {
		if m.Active() {
			return m.Name()
		}
	}
	return ""
}

// Exists reports whether a mode with the given name is registered.
func (c *Controller) Exists(name string) bool {
	return c.registry.Exists(name)
}

// IsEnabled reports the enabled flag of the named mode.
func (c *Controller) IsEnabled(name string) (bool, error) {
	m, err := c.registry.Get(name)
	if err != nil {
		return false, err
	}
	return m.Enabled(), nil
}

// SetEnabled flips the enabled flag of the named mode. Disabled modes are
// never evaluated; an action already in flight still settles normally.
func (c *Controller) SetEnabled(name string, enabled bool) error {
	m, err := c.registry.Get(name)
	if err != nil {
		return err
	}
	if m.Enabled() == enabled {
		return nil
	}
	m.SetEnabled(enabled)
	slog.Info("controller: mode toggled", "mode", name, "enabled", enabled)
	if enabled {
		c.publish(events.NewTypedEvent(events.SourceController, events.ModeEnabledPayload{Mode: name}))
	} else {
		c.publish(events.NewTypedEvent(events.SourceController, events.ModeDisabledPayload{Mode: name}))
	}
	return nil
}

// Pause suppresses the named mode until the agent next reports idle. Used by
// external overriding behavior that wants hazard handling to itself.
func (c *Controller) Pause(name string) error {
	m, err := c.registry.Get(name)
	if err != nil {
		return err
	}
	if m.Paused() {
		return nil
	}
	m.SetPaused(true)

	c.pauseMu.Lock()
	c.pausedAt[name] = &pauseInfo{since: c.now()}
	c.pauseMu.Unlock()

	slog.Info("controller: mode paused", "mode", name)
	c.publish(events.NewTypedEvent(events.SourceController, events.ModePausedPayload{Mode: name}))
	return nil
}

// DescribeAll renders the stable-ordered mode enumeration.
func (c *Controller) DescribeAll() string {
	return c.registry.DescribeAll()
}

// Snapshot returns the current status of every mode in priority order.
func (c *Controller) Snapshot() []ModeStatus {
	return c.registry.Snapshot()
}

func (c *Controller) clearPause(name string) {
	c.pauseMu.Lock()
	delete(c.pausedAt, name)
	c.pauseMu.Unlock()
}

// checkLongPaused warns once per pause episode when a mode has been
// suppressed past the configured threshold.
func (c *Controller) checkLongPaused() {
	if c.pauseWarn < 0 {
		return
	}
	now := c.now()

	c.pauseMu.Lock()
	defer c.pauseMu.Unlock()
	for name, info := range c.pausedAt {
		if info.warned {
			continue
		}
		if now.Sub(info.since) >= c.pauseWarn {
			info.warned = true
			slog.Warn("controller: mode paused for a long time, override may never complete",
				"mode", name, "paused_for", now.Sub(info.since).Round(time.Second))
		}
	}
}

func (c *Controller) publish(evt events.Event) {
	if c.bus != nil {
		c.bus.Publish(evt)
	}
}
