package behavior

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDispatchLifecycle(t *testing.T) {
	r := newTestRig(t)
	m := newStubMode("test_mode")

	id, err := r.exec.Dispatch(m, "trigger reason", r.skills.action("noop"), 0)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty action id")
	}

	waitUntil(t, time.Second, func() bool { return len(r.rec.Records()) == 1 })
	if m.Active() {
		t.Error("mode still active after the action settled")
	}

	recs := r.rec.Records()
	if len(recs) != 1 {
		t.Fatalf("expected 1 journal record, got %d", len(recs))
	}
	if recs[0].Mode != "test_mode" || recs[0].ActionID != id {
		t.Errorf("record: %+v", recs[0])
	}
	if recs[0].Status != OutcomeSuccess {
		t.Errorf("status: got %s, want success", recs[0].Status)
	}
	if recs[0].Trigger != "trigger reason" {
		t.Errorf("trigger: got %q", recs[0].Trigger)
	}
}

func TestDispatchSingleFlight(t *testing.T) {
	r := newTestRig(t)
	m := newStubMode("test_mode")
	block := make(chan struct{})
	r.skills.block = block
	defer close(block)

	if _, err := r.exec.Dispatch(m, "first", r.skills.action("one"), 0); err != nil {
		t.Fatalf("first Dispatch: %v", err)
	}
	waitUntil(t, time.Second, func() bool { return len(r.skills.Dispatched()) == 1 })

	_, err := r.exec.Dispatch(m, "second", r.skills.action("two"), 0)
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if !m.Active() {
		t.Error("mode should still be active while first action runs")
	}
}

func TestDispatchRefusedAcrossModes(t *testing.T) {
	r := newTestRig(t)
	first := newStubMode("first")
	other := newStubMode("other")
	block := make(chan struct{})
	r.skills.block = block

	if _, err := r.exec.Dispatch(first, "go", r.skills.action("one"), 0); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	// One body: no second action may start while the first is in flight,
	// whichever mode asks.
	_, err := r.exec.Dispatch(other, "go", r.skills.action("two"), 0)
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy for a second mode, got %v", err)
	}
	if other.Active() {
		t.Fatal("refused dispatch must not activate the mode")
	}

	close(block)
	waitUntil(t, time.Second, func() bool { return len(r.rec.Records()) == 1 })

	if _, err := r.exec.Dispatch(other, "go", r.skills.action("two"), 0); err != nil {
		t.Fatalf("dispatch after settle: %v", err)
	}
	waitUntil(t, time.Second, func() bool { return len(r.rec.Records()) == 2 })
}

func TestDispatchFailureIsRecoverable(t *testing.T) {
	r := newTestRig(t)
	m := newStubMode("test_mode")
	r.skills.fail = errors.New("swing missed")

	if _, err := r.exec.Dispatch(m, "first", r.skills.action("swing"), 0); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	waitUntil(t, time.Second, func() bool { return len(r.rec.Records()) == 1 })

	recs := r.rec.Records()
	if len(recs) != 1 || recs[0].Status != OutcomeFailure {
		t.Fatalf("expected 1 failure record, got %+v", recs)
	}
	if recs[0].Message != "swing missed" {
		t.Errorf("message: got %q", recs[0].Message)
	}

	// Failure must not poison the mode: the next dispatch goes through.
	r.skills.fail = nil
	if _, err := r.exec.Dispatch(m, "second", r.skills.action("swing"), 0); err != nil {
		t.Fatalf("redispatch after failure: %v", err)
	}
	waitUntil(t, time.Second, func() bool { return len(r.rec.Records()) == 2 })
	if got := r.rec.Records()[1].Status; got != OutcomeSuccess {
		t.Errorf("second status: got %s, want success", got)
	}
}

func TestDispatchTimeout(t *testing.T) {
	r := newTestRig(t)
	m := newStubMode("test_mode")
	block := make(chan struct{})
	r.skills.block = block
	defer close(block)

	if _, err := r.exec.Dispatch(m, "stall", r.skills.action("stall"), 50*time.Millisecond); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	waitUntil(t, time.Second, func() bool { return len(r.rec.Records()) == 1 })
	if m.Active() {
		t.Error("mode still active after the timeout settled it")
	}

	recs := r.rec.Records()
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].Status != OutcomeTimeout {
		t.Errorf("status: got %s, want timeout", recs[0].Status)
	}
}

func TestDispatchExactlyOneTransition(t *testing.T) {
	r := newTestRig(t)
	m := newStubMode("test_mode")
	block := make(chan struct{})
	r.skills.block = block

	if _, err := r.exec.Dispatch(m, "go", r.skills.action("slow"), 0); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !m.Active() {
		t.Fatal("mode should be active while the action is in flight")
	}

	close(block)
	waitUntil(t, time.Second, func() bool { return !m.Active() })

	// Settled mode stays inactive until redispatched.
	time.Sleep(20 * time.Millisecond)
	if m.Active() {
		t.Error("mode reactivated without a dispatch")
	}
}

func TestExecutorWait(t *testing.T) {
	r := newTestRig(t)
	m := newStubMode("test_mode")
	block := make(chan struct{})
	r.skills.block = block

	if _, err := r.exec.Dispatch(m, "go", r.skills.action("slow"), 0); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := r.exec.Wait(ctx); err == nil {
		t.Error("Wait should report deadline while an action is in flight")
	}

	close(block)
	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	if err := r.exec.Wait(ctx2); err != nil {
		t.Errorf("Wait after settle: %v", err)
	}
}
