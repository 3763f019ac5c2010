package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/dohr-michael/reflex/internal/behavior"
	"github.com/dohr-michael/reflex/internal/world"
)

const (
	defaultSpeed = 4.0 // blocks per second
	defaultPace  = 25 * time.Millisecond

	reachRange   = 1.2
	pickupRange  = 1.0
	fleeRange    = 12.0
	relocateDist = 4.0
)

// SkillsConfig tunes the skill primitives.
type SkillsConfig struct {
	Speed float64       // agent movement speed, blocks per second
	Pace  time.Duration // mutation stride interval
}

// SkillSet implements the action primitives against a World. Actions mutate
// the world in small strides on a fixed pace so they stay cancellable at any
// point.
type SkillSet struct {
	w     *World
	speed float64
	pace  time.Duration
}

// NewSkillSet builds the skill primitives for a world.
func NewSkillSet(w *World, cfg SkillsConfig) *SkillSet {
	if cfg.Speed <= 0 {
		cfg.Speed = defaultSpeed
	}
	if cfg.Pace <= 0 {
		cfg.Pace = defaultPace
	}
	return &SkillSet{w: w, speed: cfg.Speed, pace: cfg.Pace}
}

// paced runs step on the stride pace until it reports done or ctx ends.
func (s *SkillSet) paced(ctx context.Context, step func() (bool, error)) error {
	t := time.NewTicker(s.pace)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			done, err := step()
			if err != nil || done {
				return err
			}
		}
	}
}

func (s *SkillSet) stepLen() float64 {
	return s.speed * s.pace.Seconds()
}

// approach walks toward the entity's current position until within reach.
// Returns false when the entity left the world.
func (s *SkillSet) approach(ctx context.Context, id string, reach float64) (bool, error) {
	present := true
	err := s.paced(ctx, func() (bool, error) {
		e, found := s.w.entity(id)
		if !found {
			present = false
			return true, nil
		}
		if s.w.Position().Dist(e.Pos) <= reach {
			return true, nil
		}
		s.w.stride(e.Pos, s.stepLen())
		return false, nil
	})
	return present, err
}

// Defend closes on the hostile and strikes it down.
func (s *SkillSet) Defend(target world.Entity) behavior.Action {
	return func(ctx context.Context) error {
		present, err := s.approach(ctx, target.ID, reachRange)
		if err != nil {
			return err
		}
		if !present {
			return fmt.Errorf("defend %s: target lost", target.ID)
		}
		if _, ok := s.w.removeEntity(target.ID); !ok {
			return fmt.Errorf("defend %s: target lost", target.ID)
		}
		return nil
	}
}

// Hunt chases the animal down and leaves its drop behind.
func (s *SkillSet) Hunt(target world.Entity) behavior.Action {
	return func(ctx context.Context) error {
		present, err := s.approach(ctx, target.ID, reachRange)
		if err != nil {
			return err
		}
		if !present {
			return fmt.Errorf("hunt %s: quarry lost", target.ID)
		}
		felled, ok := s.w.removeEntity(target.ID)
		if !ok {
			return fmt.Errorf("hunt %s: quarry lost", target.ID)
		}
		s.w.addEntity(world.Entity{
			ID:   felled.ID + "-drop",
			Kind: meatFor(felled.Kind),
			Pos:  felled.Pos,
		})
		return nil
	}
}

// PickUp walks to a dropped item and stows it.
func (s *SkillSet) PickUp(item world.Entity) behavior.Action {
	return func(ctx context.Context) error {
		present, err := s.approach(ctx, item.ID, pickupRange)
		if err != nil {
			return err
		}
		if !present {
			return fmt.Errorf("pickup %s: item gone", item.ID)
		}
		taken, ok := s.w.removeEntity(item.ID)
		if !ok {
			return fmt.Errorf("pickup %s: item gone", item.ID)
		}
		s.w.collect(taken)
		return nil
	}
}

// PlaceTorch sets a torch at the given position.
func (s *SkillSet) PlaceTorch(at world.Vec3) behavior.Action {
	return func(ctx context.Context) error {
		placed := false
		return s.paced(ctx, func() (bool, error) {
			if !placed {
				s.w.addBlock(world.Block{Kind: "torch", Pos: at})
				placed = true
			}
			return true, nil
		})
	}
}

// Flee runs away from the hostile until out of its reach.
func (s *SkillSet) Flee(from world.Entity) behavior.Action {
	return func(ctx context.Context) error {
		return s.paced(ctx, func() (bool, error) {
			e, found := s.w.entity(from.ID)
			if !found {
				return true, nil
			}
			pos := s.w.Position()
			if pos.Dist(e.Pos) >= fleeRange {
				return true, nil
			}
			dir := pos.Sub(e.Pos)
			dir.Y = 0
			if dir.Len() == 0 {
				dir = world.Vec3{X: 1}
			}
			s.w.stride(pos.Add(dir.Norm().Scale(s.stepLen()+1)), s.stepLen())
			return false, nil
		})
	}
}

// MoveAway steps out of the current spot, away from the nearest hazard.
func (s *SkillSet) MoveAway(dist float64) behavior.Action {
	return func(ctx context.Context) error {
		target := s.w.Position().Add(s.w.hazardEscapeDir().Scale(dist))
		return s.paced(ctx, func() (bool, error) {
			return s.w.stride(target, s.stepLen()) == 0, nil
		})
	}
}

// Relocate wanders a few blocks in a random direction.
func (s *SkillSet) Relocate() behavior.Action {
	return func(ctx context.Context) error {
		target := s.w.Position().Add(s.w.randomDir().Scale(relocateDist))
		return s.paced(ctx, func() (bool, error) {
			return s.w.stride(target, s.stepLen()) == 0, nil
		})
	}
}

func meatFor(kind string) string {
	switch kind {
	case "cow":
		return "item/raw_beef"
	case "pig":
		return "item/raw_porkchop"
	case "sheep":
		return "item/raw_mutton"
	default:
		return "item/raw_" + kind
	}
}
