package behavior

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownMode is returned for control operations on names that were
	// never registered. Callers treat this as a configuration error.
	ErrUnknownMode = errors.New("unknown mode")
)

// Registry is the fixed, priority-ordered collection of modes. Order is set
// at construction and never changes; earlier modes win arbitration.
type Registry struct {
	modes  []Mode
	byName map[string]Mode
}

// NewRegistry builds a registry from modes in priority order. Duplicate names
// are a construction error, the only unrecoverable condition in the core.
func NewRegistry(modes ...Mode) (*Registry, error) {
	r := &Registry{
		modes:  make([]Mode, 0, len(modes)),
		byName: make(map[string]Mode, len(modes)),
	}
	for _, m := range modes {
		if m.Name() == "" {
			return nil, fmt.Errorf("mode with empty name at priority %d", len(r.modes))
		}
		if _, exists := r.byName[m.Name()]; exists {
			return nil, fmt.Errorf("mode %q already registered", m.Name())
		}
		r.modes = append(r.modes, m)
		r.byName[m.Name()] = m
	}
	return r, nil
}

// Modes returns the modes in priority order.
func (r *Registry) Modes() []Mode {
	out := make([]Mode, len(r.modes))
	copy(out, r.modes)
	return out
}

// Get returns the named mode or ErrUnknownMode.
func (r *Registry) Get(name string) (Mode, error) {
	m, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
	return m, nil
}

// Exists reports whether a mode with the given name is registered.
func (r *Registry) Exists(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Len returns the number of registered modes.
func (r *Registry) Len() int {
	return len(r.modes)
}

// ModeStatus is one row of a registry snapshot.
type ModeStatus struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
	Paused      bool   `json:"paused"`
	Active      bool   `json:"active"`
}

// Snapshot returns the current status of every mode in priority order.
func (r *Registry) Snapshot() []ModeStatus {
	out := make([]ModeStatus, 0, len(r.modes))
	for _, m := range r.modes {
		out = append(out, ModeStatus{
			Name:        m.Name(),
			Description: m.Description(),
			Enabled:     m.Enabled(),
			Paused:      m.Paused(),
			Active:      m.Active(),
		})
	}
	return out
}

// DescribeAll renders a stable-ordered enumeration of every mode: name,
// on/off state and description, one per line in priority order.
func (r *Registry) DescribeAll() string {
	var b strings.Builder
	for _, m := range r.modes {
		state := "off"
		if m.Enabled() {
			state = "on"
		}
		fmt.Fprintf(&b, "%s (%s): %s\n", m.Name(), state, m.Description())
	}
	return b.String()
}
