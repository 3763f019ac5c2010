package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/dohr-michael/reflex/internal/events"
	"github.com/dohr-michael/reflex/internal/world"
)

// ErrTaskRunning is returned by BeginTask while another task owns the agent.
var ErrTaskRunning = errors.New("task already running")

const (
	// contactRange is how close hazards and hostiles must be to hurt.
	contactRange = 1.5
	// hostileStop keeps drifting hostiles from stacking on the agent.
	hostileStop = 0.75
	// damage rates in health per second
	hazardDamage  = 4.0
	hostileDamage = 2.0

	// ClearPath sampling
	pathSampleStep = 0.5
	pathBlockRange = 0.75
)

// Config holds what a World needs.
type Config struct {
	Scenario *Scenario
	Bus      *events.Bus // optional
	Seed     uint64      // 0 = time-seeded
}

// World is the in-memory demo world. One mutex guards all state; Step and
// the skill actions are the only writers.
type World struct {
	mu        sync.Mutex
	elapsed   time.Duration
	pos       world.Vec3
	health    float64
	gaze      world.Vec3
	entities  []world.Entity
	blocks    []world.Block
	pending   []Spawn
	task      *externalTask
	busy      int
	collected []string

	bus *events.Bus
	rng *rand.Rand
}

type externalTask struct {
	name string
	ends time.Duration // scenario clock deadline
}

// New builds a World from a scenario.
func New(cfg Config) (*World, error) {
	if cfg.Scenario == nil {
		return nil, fmt.Errorf("sim: scenario is required")
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	w := &World{
		pos:      cfg.Scenario.Agent.Position,
		health:   cfg.Scenario.Agent.Health,
		entities: append([]world.Entity(nil), cfg.Scenario.Entities...),
		blocks:   append([]world.Block(nil), cfg.Scenario.Blocks...),
		pending:  append([]Spawn(nil), cfg.Scenario.Spawns...),
		bus:      cfg.Bus,
		rng:      rand.New(rand.NewPCG(seed, seed^0xda3e39cb94b95bdb)),
	}
	sort.SliceStable(w.pending, func(i, j int) bool {
		return w.pending[i].After < w.pending[j].After
	})
	return w, nil
}

// Step advances the scenario clock: scripted spawns, hostile drift toward
// the agent, contact damage, external task expiry.
func (w *World) Step(dt time.Duration) {
	if dt <= 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.elapsed += dt

	for len(w.pending) > 0 && w.pending[0].After.Duration() <= w.elapsed {
		sp := w.pending[0]
		w.pending = w.pending[1:]
		w.entities = append(w.entities, sp.Entity)
		slog.Info("sim: entity spawned", "id", sp.Entity.ID, "kind", sp.Entity.Kind)
	}

	secs := dt.Seconds()
	for i := range w.entities {
		e := &w.entities[i]
		if !e.Hostile || e.Speed <= 0 {
			continue
		}
		to := w.pos.Sub(e.Pos)
		rem := to.Len() - hostileStop
		if rem <= 0 {
			continue
		}
		step := e.Speed * secs
		if step > rem {
			step = rem
		}
		e.Pos = e.Pos.Add(to.Norm().Scale(step))
	}

	damage := 0.0
	for _, b := range w.blocks {
		if (b.Kind == "lava" || b.Kind == "fire") && w.pos.Dist(b.Pos) <= contactRange {
			damage += hazardDamage * secs
		}
	}
	for _, e := range w.entities {
		if e.Hostile && w.pos.Dist(e.Pos) <= contactRange {
			damage += hostileDamage * secs
		}
	}
	if damage > 0 {
		w.health = math.Max(0, w.health-damage)
	}

	if w.task != nil && w.elapsed >= w.task.ends {
		w.finishTaskLocked()
	}
}

// Elapsed returns the scenario clock.
func (w *World) Elapsed() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.elapsed
}

// BeginTask makes a named external task own the agent for the given scenario
// time, suppressing idle-gated behavior until it ends.
func (w *World) BeginTask(name string, d time.Duration) error {
	if name == "" {
		return fmt.Errorf("sim: task name is required")
	}
	if d <= 0 {
		return fmt.Errorf("sim: task duration must be positive")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.task != nil {
		return fmt.Errorf("sim: %w: %s", ErrTaskRunning, w.task.name)
	}
	w.task = &externalTask{name: name, ends: w.elapsed + d}
	slog.Info("sim: task started", "task", name, "duration", d)
	w.publishLocked(events.NewTypedEvent(events.SourceWorld, events.TaskStartedPayload{
		Name:     name,
		Duration: d,
	}))
	return nil
}

// CurrentTask returns the running external task's name, if any.
func (w *World) CurrentTask() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.task == nil {
		return "", false
	}
	return w.task.name, true
}

func (w *World) finishTaskLocked() {
	name := w.task.name
	w.task = nil
	slog.Info("sim: task finished", "task", name)
	w.publishLocked(events.NewTypedEvent(events.SourceWorld, events.TaskFinishedPayload{
		Name: name,
	}))
}

// publishLocked is safe under w.mu: Publish never blocks.
func (w *World) publishLocked(evt events.Event) {
	if w.bus != nil {
		w.bus.Publish(evt)
	}
}

// IsIdle reports whether neither an external task nor a mode action owns the
// agent.
func (w *World) IsIdle() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.task == nil && w.busy == 0
}

// Position returns the agent's position.
func (w *World) Position() world.Vec3 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pos
}

// Health returns the agent's health.
func (w *World) Health() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.health
}

// LookAt points the agent's gaze. Cosmetic only.
func (w *World) LookAt(target world.Vec3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gaze = target
}

// Gaze returns the current gaze target.
func (w *World) Gaze() world.Vec3 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gaze
}

// Collected returns the kinds of items picked up so far.
func (w *World) Collected() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.collected))
	copy(out, w.collected)
	return out
}

// NearestEntity returns the closest entity within radius satisfying pred.
func (w *World) NearestEntity(pred func(world.Entity) bool, radius float64) (world.Entity, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var best world.Entity
	bestDist := 0.0
	found := false
	for _, e := range w.entities {
		d := w.pos.Dist(e.Pos)
		if d > radius || !pred(e) {
			continue
		}
		if !found || d < bestDist {
			best, bestDist, found = e, d, true
		}
	}
	return best, found
}

// NearestBlock returns the closest block of the given kind within radius.
func (w *World) NearestBlock(kind string, radius float64) (world.Block, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var best world.Block
	bestDist := 0.0
	found := false
	for _, b := range w.blocks {
		d := w.pos.Dist(b.Pos)
		if d > radius || b.Kind != kind {
			continue
		}
		if !found || d < bestDist {
			best, bestDist, found = b, d, true
		}
	}
	return best, found
}

// ClearPath samples the straight segment to the target and reports whether
// it avoids all solid blocks.
func (w *World) ClearPath(ctx context.Context, to world.Vec3) (bool, error) {
	w.mu.Lock()
	from := w.pos
	solids := make([]world.Vec3, 0, len(w.blocks))
	for _, b := range w.blocks {
		if b.Solid {
			solids = append(solids, b.Pos)
		}
	}
	w.mu.Unlock()

	seg := to.Sub(from)
	steps := int(seg.Len()/pathSampleStep) + 1
	for i := 0; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		p := from.Add(seg.Scale(float64(i) / float64(steps)))
		for _, s := range solids {
			if p.Dist(s) <= pathBlockRange {
				return false, nil
			}
		}
	}
	return true, nil
}

// stride moves the agent up to maxStep toward target and returns the
// remaining distance.
func (w *World) stride(target world.Vec3, maxStep float64) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	to := target.Sub(w.pos)
	rem := to.Len()
	if rem <= maxStep {
		w.pos = target
		return 0
	}
	w.pos = w.pos.Add(to.Norm().Scale(maxStep))
	return rem - maxStep
}

func (w *World) entity(id string) (world.Entity, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range w.entities {
		if e.ID == id {
			return e, true
		}
	}
	return world.Entity{}, false
}

// removeEntity takes an entity out of the world, returning it.
func (w *World) removeEntity(id string) (world.Entity, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, e := range w.entities {
		if e.ID == id {
			w.entities = append(w.entities[:i], w.entities[i+1:]...)
			return e, true
		}
	}
	return world.Entity{}, false
}

func (w *World) addEntity(e world.Entity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entities = append(w.entities, e)
}

func (w *World) addBlock(b world.Block) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.blocks = append(w.blocks, b)
}

func (w *World) collect(e world.Entity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.collected = append(w.collected, e.Kind)
}

// randomDir returns a unit vector at a random yaw on the horizontal plane.
func (w *World) randomDir() world.Vec3 {
	w.mu.Lock()
	defer w.mu.Unlock()
	yaw := w.rng.Float64() * 2 * math.Pi
	return world.Vec3{X: math.Cos(yaw), Z: math.Sin(yaw)}
}

// hazardEscapeDir points away from the nearest damaging block, or in a
// random direction when none is close.
func (w *World) hazardEscapeDir() world.Vec3 {
	w.mu.Lock()
	var nearest *world.Block
	nearestDist := 0.0
	for i, b := range w.blocks {
		switch b.Kind {
		case "lava", "fire", "water":
		default:
			continue
		}
		d := w.pos.Dist(b.Pos)
		if d > 3 {
			continue
		}
		if nearest == nil || d < nearestDist {
			nearest = &w.blocks[i]
			nearestDist = d
		}
	}
	if nearest != nil {
		dir := w.pos.Sub(nearest.Pos)
		dir.Y = 0
		if dir.Len() > 0 {
			w.mu.Unlock()
			return dir.Norm()
		}
	}
	w.mu.Unlock()
	return w.randomDir()
}

func (w *World) beginAction() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.busy++
}

func (w *World) endAction() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.busy--
}
