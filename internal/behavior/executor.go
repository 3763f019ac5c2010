package behavior

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dohr-michael/reflex/internal/events"
)

var (
	// ErrBusy is returned when a mode already has an action in flight.
	ErrBusy = errors.New("mode action already in flight")
)

// OutcomeStatus classifies how an action settled.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailure OutcomeStatus = "failure"
	OutcomeTimeout OutcomeStatus = "timeout"
)

// Outcome is the settle result of one dispatched action.
type Outcome struct {
	ActionID string        `json:"action_id"`
	Mode     string        `json:"mode"`
	Status   OutcomeStatus `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// OutcomeRecord is the journal row for one settled action.
type OutcomeRecord struct {
	ActionID   string
	Mode       string
	Trigger    string
	Status     OutcomeStatus
	Message    string
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
}

// Recorder persists settled outcomes for diagnostics.
type Recorder interface {
	Record(ctx context.Context, rec OutcomeRecord) error
}

// GenerateActionID returns a short unique action invocation ID.
func GenerateActionID() string {
	return "act_" + uuid.New().String()[:8]
}

// ExecutorConfig holds the collaborators an Executor needs.
type ExecutorConfig struct {
	Runner  Runner
	Bus     *events.Bus // optional
	Journal Recorder    // optional
	Now     func() time.Time
}

// Executor runs mode actions single-flight across the whole registry: the
// agent is one body, so while any action is in flight further dispatches are
// refused with ErrBusy. There is no preemption; an in-flight action ends only
// by settling or by its own timeout. Each dispatch makes exactly one
// active=false→true→false transition and records an outcome. Failures are
// converted to outcomes, never propagated to the tick loop.
type Executor struct {
	runner  Runner
	bus     *events.Bus
	journal Recorder
	now     func() time.Time
	wg      sync.WaitGroup

	mu     sync.Mutex
	holder string // mode whose action is in flight, "" when none
}

// NewExecutor creates an Executor.
func NewExecutor(cfg ExecutorConfig) (*Executor, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("executor: runner is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Executor{
		runner:  cfg.Runner,
		bus:     cfg.Bus,
		journal: cfg.Journal,
		now:     now,
	}, nil
}

// Dispatch starts the mode's action in the sandbox and returns immediately
// with the action ID. The mode stays active until the action settles; a
// timeout > 0 bounds the run and maps to a timeout outcome. Returns ErrBusy
// while any mode's action is in flight.
func (e *Executor) Dispatch(mode Mode, trigger string, act Action, timeout time.Duration) (string, error) {
	e.mu.Lock()
	if e.holder != "" {
		holder := e.holder
		e.mu.Unlock()
		return "", fmt.Errorf("%w: %s action still running", ErrBusy, holder)
	}
	if !mode.TryActivate() {
		e.mu.Unlock()
		return "", fmt.Errorf("%w: %s already active", ErrBusy, mode.Name())
	}
	e.holder = mode.Name()
	e.mu.Unlock()

	id := GenerateActionID()
	slog.Info("executor: mode activated", "mode", mode.Name(), "action_id", id, "trigger", trigger)
	e.publish(events.NewTypedEvent(events.SourceExecutor, events.ModeActivatedPayload{
		Mode:     mode.Name(),
		ActionID: id,
		Trigger:  trigger,
	}))

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.run(mode, id, trigger, act, timeout)
	}()

	return id, nil
}

// run executes one action to completion and settles the mode.
func (e *Executor) run(mode Mode, id, trigger string, act Action, timeout time.Duration) {
	ctx := events.ContextWithActionID(context.Background(), id)
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	started := e.now()
	err := e.runner.Run(ctx, act)
	finished := e.now()
	elapsed := finished.Sub(started)

	outcome := Outcome{
		ActionID: id,
		Mode:     mode.Name(),
		Status:   OutcomeSuccess,
		Duration: elapsed,
	}
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		outcome.Status = OutcomeTimeout
		outcome.Message = fmt.Sprintf("action abandoned after %s", timeout)
	default:
		outcome.Status = OutcomeFailure
		outcome.Message = err.Error()
	}

	// Deactivate before releasing the in-flight guard so no observer ever
	// sees two wrapper actions active.
	mode.SetActive(false)
	e.mu.Lock()
	e.holder = ""
	e.mu.Unlock()

	if outcome.Status == OutcomeSuccess {
		slog.Info("executor: mode completed", "mode", mode.Name(), "action_id", id, "duration", elapsed)
	} else {
		slog.Warn("executor: mode action failed",
			"mode", mode.Name(), "action_id", id, "status", outcome.Status, "message", outcome.Message)
	}

	e.publish(events.NewTypedEvent(events.SourceExecutor, events.ModeCompletedPayload{
		Mode:     mode.Name(),
		ActionID: id,
		Status:   string(outcome.Status),
		Message:  outcome.Message,
		Duration: elapsed,
	}))

	if e.journal != nil {
		rec := OutcomeRecord{
			ActionID:   id,
			Mode:       mode.Name(),
			Trigger:    trigger,
			Status:     outcome.Status,
			Message:    outcome.Message,
			StartedAt:  started,
			FinishedAt: finished,
			Duration:   elapsed,
		}
		if err := e.journal.Record(context.Background(), rec); err != nil {
			slog.Warn("executor: journal record failed", "action_id", id, "error", err)
		}
	}
}

func (e *Executor) publish(evt events.Event) {
	if e.bus != nil {
		e.bus.Publish(evt)
	}
}

// Wait blocks until all in-flight actions settle or ctx expires. Actions are
// never cancelled here; the only cancellation path is a dispatch timeout.
func (e *Executor) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
