package behavior

import (
	"context"
	"sync"
	"time"

	"github.com/dohr-michael/reflex/internal/world"
)

// Mode is one named behavior: a trigger predicate evaluated every tick plus
// the action it dispatches when the trigger fires. The flag accessors are
// satisfied by embedding ModeState; only Name, Description and Update need
// real implementations.
type Mode interface {
	Name() string
	Description() string

	Enabled() bool
	SetEnabled(enabled bool)
	Paused() bool
	SetPaused(paused bool)
	Active() bool
	SetActive(active bool)
	TryActivate() bool

	// Update evaluates the trigger and may dispatch an action through the
	// executor. Called only while enabled and unpaused. Returned errors are
	// trigger-evaluation failures: logged by the controller, never fatal.
	Update(ctx context.Context, ac *AgentContext) error
}

// ModeState carries the lifecycle flags shared by every mode. Zero value is
// disabled, unpaused, inactive.
type ModeState struct {
	mu      sync.Mutex
	enabled bool
	paused  bool
	active  bool
}

func (s *ModeState) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *ModeState) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

func (s *ModeState) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *ModeState) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
}

func (s *ModeState) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *ModeState) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

// TryActivate flips active from false to true. Returns false if an action is
// already in flight; the executor uses this as its single-flight guard.
func (s *ModeState) TryActivate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return false
	}
	s.active = true
	return true
}

// Agent reports the hosting agent's own state and accepts cosmetic output.
type Agent interface {
	// IsIdle reports whether any higher-level task currently owns the agent.
	IsIdle() bool
	Position() world.Vec3
	Health() float64
	// LookAt points the agent's gaze. Cosmetic only; no action is queued.
	LookAt(target world.Vec3)
}

// Sensor answers read-only world queries for trigger evaluation. Queries must
// be cheap; ClearPath may block briefly and honors ctx.
type Sensor interface {
	NearestEntity(pred func(world.Entity) bool, radius float64) (world.Entity, bool)
	NearestBlock(kind string, radius float64) (world.Block, bool)
	ClearPath(ctx context.Context, to world.Vec3) (bool, error)
}

// Action is one opaque asynchronous behavior. It must return once ctx is
// done; work left running past that point is abandoned by the executor.
type Action func(ctx context.Context) error

// Runner executes a single action inside the hosting agent's sandbox. The
// returned error is the action's settle result; panics must be recovered and
// converted to errors.
type Runner interface {
	Run(ctx context.Context, act Action) error
}

// Skills provides the opaque action primitives modes dispatch. What each one
// actually does in the world is the implementation's business.
type Skills interface {
	Defend(target world.Entity) Action
	Hunt(target world.Entity) Action
	PickUp(item world.Entity) Action
	PlaceTorch(at world.Vec3) Action
	Flee(from world.Entity) Action
	MoveAway(dist float64) Action
	Relocate() Action
}

// AgentContext bundles everything a mode's Update may consult.
type AgentContext struct {
	Agent    Agent
	Sensor   Sensor
	Skills   Skills
	Executor *Executor
	Now      func() time.Time
}

// Clock returns the context's time source, defaulting to time.Now.
func (ac *AgentContext) Clock() time.Time {
	if ac.Now != nil {
		return ac.Now()
	}
	return time.Now()
}
