package behavior

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dohr-michael/reflex/internal/world"
)

// waitUntil polls cond until it holds or the timeout expires.
func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

type fakeAgent struct {
	mu     sync.Mutex
	idle   bool
	pos    world.Vec3
	health float64
	looks  int
	gaze   world.Vec3
}

func (a *fakeAgent) IsIdle() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.idle
}

func (a *fakeAgent) SetIdle(idle bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.idle = idle
}

func (a *fakeAgent) Position() world.Vec3 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pos
}

func (a *fakeAgent) SetPosition(p world.Vec3) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pos = p
}

func (a *fakeAgent) Health() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.health
}

func (a *fakeAgent) SetHealth(h float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.health = h
}

func (a *fakeAgent) LookAt(target world.Vec3) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.looks++
	a.gaze = target
}

func (a *fakeAgent) Looks() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.looks
}

func (a *fakeAgent) Gaze() world.Vec3 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gaze
}

type fakeSensor struct {
	mu       sync.Mutex
	origin   world.Vec3
	entities []world.Entity
	blocks   []world.Block
	clear    bool
	clearErr error
}

func newFakeSensor() *fakeSensor {
	return &fakeSensor{clear: true}
}

func (s *fakeSensor) SetEntities(ents ...world.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities = ents
}

func (s *fakeSensor) SetBlocks(blocks ...world.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = blocks
}

func (s *fakeSensor) NearestEntity(pred func(world.Entity) bool, radius float64) (world.Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best world.Entity
	bestDist := radius + 1
	found := false
	for _, e := range s.entities {
		d := s.origin.Dist(e.Pos)
		if d > radius || !pred(e) {
			continue
		}
		if !found || d < bestDist {
			best, bestDist, found = e, d, true
		}
	}
	return best, found
}

func (s *fakeSensor) NearestBlock(kind string, radius float64) (world.Block, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best world.Block
	bestDist := radius + 1
	found := false
	for _, b := range s.blocks {
		d := s.origin.Dist(b.Pos)
		if d > radius || b.Kind != kind {
			continue
		}
		if !found || d < bestDist {
			best, bestDist, found = b, d, true
		}
	}
	return best, found
}

func (s *fakeSensor) ClearPath(ctx context.Context, to world.Vec3) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clear, s.clearErr
}

// fakeSkills hands out actions that record their name when run. A non-nil
// block channel makes every action wait until it is closed or ctx expires.
type fakeSkills struct {
	mu         sync.Mutex
	dispatched []string
	block      chan struct{}
	fail       error
}

func (s *fakeSkills) action(name string) Action {
	return func(ctx context.Context) error {
		s.mu.Lock()
		s.dispatched = append(s.dispatched, name)
		block := s.block
		fail := s.fail
		s.mu.Unlock()
		if block != nil {
			select {
			case <-block:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return fail
	}
}

func (s *fakeSkills) Dispatched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.dispatched))
	copy(out, s.dispatched)
	return out
}

func (s *fakeSkills) Defend(world.Entity) Action   { return s.action("defend") }
func (s *fakeSkills) Hunt(world.Entity) Action     { return s.action("hunt") }
func (s *fakeSkills) PickUp(world.Entity) Action   { return s.action("pickup") }
func (s *fakeSkills) PlaceTorch(world.Vec3) Action { return s.action("place_torch") }
func (s *fakeSkills) Flee(world.Entity) Action     { return s.action("flee") }
func (s *fakeSkills) MoveAway(float64) Action      { return s.action("move_away") }
func (s *fakeSkills) Relocate() Action             { return s.action("relocate") }

// passRunner runs actions inline; the executor supplies the context.
type passRunner struct{}

func (passRunner) Run(ctx context.Context, act Action) error {
	return act(ctx)
}

type fakeRecorder struct {
	mu   sync.Mutex
	recs []OutcomeRecord
}

func (r *fakeRecorder) Record(ctx context.Context, rec OutcomeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
	return nil
}

func (r *fakeRecorder) Records() []OutcomeRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]OutcomeRecord, len(r.recs))
	copy(out, r.recs)
	return out
}

// rig bundles the fakes behind a controllable clock.
type rig struct {
	agent  *fakeAgent
	sensor *fakeSensor
	skills *fakeSkills
	rec    *fakeRecorder
	exec   *Executor

	mu  sync.Mutex
	now time.Time
}

func newTestRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{
		agent:  &fakeAgent{idle: true, health: 20},
		sensor: newFakeSensor(),
		skills: &fakeSkills{},
		rec:    &fakeRecorder{},
		now:    time.Unix(1_700_000_000, 0),
	}
	exec, err := NewExecutor(ExecutorConfig{
		Runner:  passRunner{},
		Journal: r.rec,
		Now:     r.clock,
	})
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	r.exec = exec
	return r
}

func (r *rig) clock() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now
}

func (r *rig) advance(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = r.now.Add(d)
}

func (r *rig) actx() *AgentContext {
	return &AgentContext{
		Agent:    r.agent,
		Sensor:   r.sensor,
		Skills:   r.skills,
		Executor: r.exec,
		Now:      r.clock,
	}
}

// stubMode is a minimal mode for registry and controller tests. Its update
// carries the same active guard real action modes use.
type stubMode struct {
	ModeState
	name       string
	updates    int
	activates  bool
	updateErr  error
	updateHook func(ac *AgentContext)
}

func newStubMode(name string) *stubMode {
	m := &stubMode{name: name}
	m.SetEnabled(true)
	return m
}

func (m *stubMode) Name() string        { return m.name }
func (m *stubMode) Description() string { return "stub mode " + m.name }

func (m *stubMode) Update(ctx context.Context, ac *AgentContext) error {
	if m.Active() {
		return nil
	}
	m.updates++
	if m.updateHook != nil {
		m.updateHook(ac)
	}
	if m.activates {
		m.SetActive(true)
	}
	return m.updateErr
}
