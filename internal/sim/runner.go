package sim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dohr-michael/reflex/internal/behavior"
	"github.com/dohr-michael/reflex/internal/events"
)

// Runner executes mode actions against the world. It marks the agent
// occupied for the duration (action time is never idle time) and converts
// panics into ordinary action failures.
type Runner struct {
	w *World
}

// NewRunner builds the sandbox runner for a world.
func NewRunner(w *World) *Runner {
	return &Runner{w: w}
}

func (r *Runner) Run(ctx context.Context, act behavior.Action) (err error) {
	r.w.beginAction()
	defer r.w.endAction()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("action panicked: %v", p)
			slog.Error("action panic recovered", "action_id", events.ActionIDFromContext(ctx), "panic", p)
		}
	}()
	return act(ctx)
}
