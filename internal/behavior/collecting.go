package behavior

import (
	"context"
	"fmt"
	"time"

	"github.com/dohr-michael/reflex/internal/world"
)

// ItemCollectingConfig tunes the item_collecting mode.
type ItemCollectingConfig struct {
	Patterns []string      // item kinds worth picking up
	Radius   float64
	Dwell    time.Duration // how long the same item must stay the best candidate
	Timeout  time.Duration
}

// itemCollectingMode picks up nearby dropped items while idle. A candidate
// must remain the best candidate for the full dwell before the pickup is
// dispatched, so transient detections do not cause thrashing. The last
// handled item is remembered and skipped on re-scan.
//
// Trigger state is touched only from the tick goroutine.
type itemCollectingMode struct {
	ModeState
	matcher *kindMatcher
	radius  float64
	dwell   time.Duration
	timeout time.Duration

	candidateID string
	firstSeen   time.Time
	prevItemID  string
}

// NewItemCollectingMode builds the item_collecting mode. Enabled by default.
func NewItemCollectingMode(cfg ItemCollectingConfig) (Mode, error) {
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = []string{"item/*"}
	}
	if cfg.Radius <= 0 {
		cfg.Radius = 8
	}
	if cfg.Dwell <= 0 {
		cfg.Dwell = 2 * time.Second
	}
	matcher, err := newKindMatcher(cfg.Patterns)
	if err != nil {
		return nil, fmt.Errorf("item_collecting: %w", err)
	}
	m := &itemCollectingMode{
		matcher: matcher,
		radius:  cfg.Radius,
		dwell:   cfg.Dwell,
		timeout: cfg.Timeout,
	}
	m.SetEnabled(true)
	return m, nil
}

func (m *itemCollectingMode) Name() string { return "item_collecting" }

func (m *itemCollectingMode) Description() string {
	return "Pick up dropped items that stay in view while idle."
}

func (m *itemCollectingMode) Update(ctx context.Context, ac *AgentContext) error {
	if m.Active() {
		return nil
	}
	if !ac.Agent.IsIdle() {
		// Continuity cannot be observed while a task owns the agent.
		m.candidateID = ""
		return nil
	}
	item, ok := ac.Sensor.NearestEntity(func(e world.Entity) bool {
		return e.IsItem() && e.ID != m.prevItemID && m.matcher.Match(e.Kind)
	}, m.radius)
	if !ok {
		m.candidateID = ""
		return nil
	}
	now := ac.Clock()
	if item.ID != m.candidateID {
		m.candidateID = item.ID
		m.firstSeen = now
		return nil
	}
	if now.Sub(m.firstSeen) < m.dwell {
		return nil
	}
	m.prevItemID = item.ID
	m.candidateID = ""
	trigger := fmt.Sprintf("%s in view for %s", item.Kind, m.dwell)
	_, err := ac.Executor.Dispatch(m, trigger, ac.Skills.PickUp(item), m.timeout)
	return err
}
