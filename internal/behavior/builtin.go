package behavior

import (
	"fmt"
)

// BuiltinConfig tunes the standard mode set. Zero values use each mode's
// defaults; Enabled overrides the per-mode default on/off state by name.
type BuiltinConfig struct {
	SelfPreservation SelfPreservationConfig
	Unstuck          UnstuckConfig
	Cowardice        CowardiceConfig
	SelfDefense      SelfDefenseConfig
	Hunting          HuntingConfig
	ItemCollecting   ItemCollectingConfig
	TorchPlacing     TorchPlacingConfig
	IdleStaring      IdleStaringConfig

	Enabled map[string]bool
}

// BuiltinRegistry assembles the standard modes in their fixed priority order:
// hazard escape first, cosmetics last. The agent is needed at construction
// because idle_staring derives its active marker from the idle predicate.
func BuiltinRegistry(cfg BuiltinConfig, agent Agent) (*Registry, error) {
	cowardice, err := NewCowardiceMode(cfg.Cowardice)
	if err != nil {
		return nil, err
	}
	defense, err := NewSelfDefenseMode(cfg.SelfDefense)
	if err != nil {
		return nil, err
	}
	hunting, err := NewHuntingMode(cfg.Hunting)
	if err != nil {
		return nil, err
	}
	collecting, err := NewItemCollectingMode(cfg.ItemCollecting)
	if err != nil {
		return nil, err
	}

	registry, err := NewRegistry(
		NewSelfPreservationMode(cfg.SelfPreservation),
		NewUnstuckMode(cfg.Unstuck),
		cowardice,
		defense,
		hunting,
		collecting,
		NewTorchPlacingMode(cfg.TorchPlacing),
		NewIdleStaringMode(cfg.IdleStaring, agent),
	)
	if err != nil {
		return nil, err
	}

	for name, enabled := range cfg.Enabled {
		m, err := registry.Get(name)
		if err != nil {
			return nil, fmt.Errorf("enable override: %w", err)
		}
		m.SetEnabled(enabled)
	}
	return registry, nil
}
