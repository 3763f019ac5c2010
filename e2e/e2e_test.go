// Package e2e wires the whole daemon together in process and drives it the
// way an operator would: scenario file in, controller ticking, REST and the
// event stream out.
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dohr-michael/reflex/clients/api"
	wsclient "github.com/dohr-michael/reflex/clients/ws"
	"github.com/dohr-michael/reflex/internal/behavior"
	"github.com/dohr-michael/reflex/internal/events"
	"github.com/dohr-michael/reflex/internal/gateway"
	"github.com/dohr-michael/reflex/internal/journal"
	"github.com/dohr-michael/reflex/internal/sim"
	"github.com/dohr-michael/reflex/internal/storage"
)

const scenarioYAML = `name: gauntlet
description: One idle stretch, one scripted ambush.
agent:
  position: {x: 0, y: 64, z: 0}
  health: 20
entities:
  - id: cow-1
    kind: cow
    position: {x: 6, y: 64, z: 1}
    health: 10
spawns:
  - after: 1200ms
    entity:
      id: zombie-1
      kind: zombie
      position: {x: 3, y: 64, z: 2}
      health: 2
      hostile: true
`

type daemon struct {
	api     *api.Client
	wsURL   string
	logPath string
}

func startDaemon(t *testing.T) *daemon {
	t.Helper()
	dir := t.TempDir()

	scenarioPath := filepath.Join(dir, "scenario.yaml")
	if err := os.WriteFile(scenarioPath, []byte(scenarioYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	scenario, err := sim.LoadScenario(scenarioPath)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}

	bus := events.NewBus(256)
	t.Cleanup(func() { bus.Close() })

	w, err := sim.New(sim.Config{Scenario: scenario, Bus: bus, Seed: 7})
	if err != nil {
		t.Fatalf("build world: %v", err)
	}
	skills := sim.NewSkillSet(w, sim.SkillsConfig{Speed: 16, Pace: 5 * time.Millisecond})

	store, err := journal.Open(filepath.Join(dir, "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	exec, err := behavior.NewExecutor(behavior.ExecutorConfig{
		Runner:  sim.NewRunner(w),
		Bus:     bus,
		Journal: store,
	})
	if err != nil {
		t.Fatalf("build executor: %v", err)
	}

	registry, err := behavior.BuiltinRegistry(behavior.BuiltinConfig{
		Enabled: map[string]bool{"item_collecting": false},
	}, w)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}

	ctrl, err := behavior.New(behavior.ControllerConfig{
		Registry:  registry,
		Agent:     w,
		Sensor:    w,
		Skills:    skills,
		Executor:  exec,
		Bus:       bus,
		Interval:  10 * time.Millisecond,
		PauseWarn: -1,
	})
	if err != nil {
		t.Fatalf("build controller: %v", err)
	}

	logPath := filepath.Join(dir, "events.jsonl")
	elog, err := storage.NewEventLog(logPath, 4, bus)
	if err != nil {
		t.Fatalf("open event log: %v", err)
	}
	t.Cleanup(func() { elog.Close() })

	port := freePort(t)
	srv, err := gateway.NewServer(gateway.ServerConfig{
		Bus:        bus,
		Controller: ctrl,
		Tasks:      w,
		Journal:    store,
		Host:       "127.0.0.1",
		Port:       port,
	})
	if err != nil {
		t.Fatalf("build gateway: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() { _ = srv.Start() }()
	t.Cleanup(func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
	})

	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		last := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				w.Step(now.Sub(last))
				last = now
			}
		}
	}()

	if err := ctrl.Start(ctx); err != nil {
		t.Fatalf("start controller: %v", err)
	}
	t.Cleanup(ctrl.Stop)

	d := &daemon{
		api:     api.New(fmt.Sprintf("http://127.0.0.1:%d", port)),
		wsURL:   fmt.Sprintf("ws://127.0.0.1:%d/api/ws", port),
		logPath: logPath,
	}
	d.awaitHealthy(t)
	return d
}

// awaitHealthy polls until the gateway answers and the controller has ticked.
func (d *daemon) awaitHealthy(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		h, err := d.api.Health(ctx)
		cancel()
		if err == nil && h.Ticks >= 1 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("daemon never became healthy")
}

// collectEvents streams gateway events into a channel until the test ends.
// Only events published after the dial are seen; the hub does not replay.
func collectEvents(t *testing.T, wsURL string) <-chan events.Event {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	client, err := wsclient.Dial(ctx, wsURL)
	if err != nil {
		cancel()
		t.Fatalf("dial event stream: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		client.Close()
	})

	ch := make(chan events.Event, 256)
	go func() {
		defer close(ch)
		for {
			frame, err := client.ReadFrame()
			if err != nil {
				return
			}
			if frame.Event == "" {
				continue
			}
			var evt events.Event
			if err := json.Unmarshal(frame.Payload, &evt); err != nil {
				continue
			}
			select {
			case ch <- evt:
			default:
			}
		}
	}()
	return ch
}

func waitForEvent(t *testing.T, ch <-chan events.Event, what string, match func(events.Event) bool) events.Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				t.Fatalf("event stream closed waiting for %s", what)
			}
			if match(evt) {
				return evt
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		}
	}
}

func eventOfType(typ events.EventType) func(events.Event) bool {
	return func(evt events.Event) bool { return evt.Type == typ }
}

func modeEvent(typ events.EventType, mode string) func(events.Event) bool {
	return func(evt events.Event) bool {
		if evt.Type != typ {
			return false
		}
		name, _ := evt.Payload["mode"].(string)
		return name == mode
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

// TestDaemonFlow drives the full loop: registry over REST, the pause protocol
// riding a real task, a scripted hostile engaging self defense on the wire,
// and the journal readable back through the gateway.
func TestDaemonFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("e2e daemon flow")
	}

	d := startDaemon(t)
	stream := collectEvents(t, d.wsURL)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Registry snapshot lists every builtin in priority order.
	modes, err := d.api.Modes(ctx)
	if err != nil {
		t.Fatalf("modes: %v", err)
	}
	wantOrder := []string{
		"self_preservation", "unstuck", "cowardice", "self_defense",
		"hunting", "item_collecting", "torch_placing", "idle_staring",
	}
	if len(modes) != len(wantOrder) {
		t.Fatalf("modes count = %d, want %d", len(modes), len(wantOrder))
	}
	for i, m := range modes {
		if m.Name != wantOrder[i] {
			t.Fatalf("modes[%d] = %s, want %s", i, m.Name, wantOrder[i])
		}
	}

	// Unknown mode names fail fast through every surface.
	if err := d.api.EnableMode(ctx, "warp"); err == nil {
		t.Fatal("enable warp: want error")
	} else if !strings.Contains(err.Error(), "unknown mode") {
		t.Fatalf("enable warp error = %v, want unknown mode", err)
	}

	// Pause only sticks while something owns the agent, so claim it with a
	// task first. An idle tick lifts every pause straight away.
	if err := d.api.BeginTask(ctx, "survey", 800*time.Millisecond); err != nil {
		t.Fatalf("begin task: %v", err)
	}
	waitForEvent(t, stream, "task start", eventOfType(events.EventTaskStarted))

	if err := d.api.PauseMode(ctx, "torch_placing"); err != nil {
		t.Fatalf("pause: %v", err)
	}
	waitForEvent(t, stream, "mode.paused", modeEvent(events.EventModePaused, "torch_placing"))

	snap, err := d.api.Modes(ctx)
	if err != nil {
		t.Fatalf("modes during task: %v", err)
	}
	for _, m := range snap {
		if m.Name == "torch_placing" && !m.Paused {
			t.Fatal("torch_placing not paused while task runs")
		}
	}

	// The task ending is the only thing that lifts the pause: the agent goes
	// idle and the next tick unpauses.
	waitForEvent(t, stream, "task finish", eventOfType(events.EventTaskFinished))
	waitForEvent(t, stream, "auto unpause", modeEvent(events.EventModeUnpaused, "torch_placing"))

	snap, err = d.api.Modes(ctx)
	if err != nil {
		t.Fatalf("modes after unpause: %v", err)
	}
	for _, m := range snap {
		if m.Name == "torch_placing" && m.Paused {
			t.Fatal("torch_placing still paused after idle")
		}
	}

	// The scripted zombie pulls in self_defense even though nothing asked the
	// agent to fight, and the executor reports the full cycle on the wire.
	waitForEvent(t, stream, "defense activation", modeEvent(events.EventModeActivated, "self_defense"))
	done := waitForEvent(t, stream, "defense completion", modeEvent(events.EventModeCompleted, "self_defense"))
	if status, _ := done.Payload["status"].(string); status != "success" {
		t.Fatalf("defense outcome = %q, want success", status)
	}

	// Outcomes land in the journal and read back over REST. torch_placing ran
	// during the idle stretch at boot.
	recs, err := d.api.History(ctx, 20, "")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	seen := map[string]bool{}
	for _, rec := range recs {
		seen[rec.Mode] = true
	}
	if !seen["torch_placing"] || !seen["self_defense"] {
		t.Fatalf("journal modes = %v, want torch_placing and self_defense", seen)
	}

	// The event log captured the run.
	if fi, err := os.Stat(d.logPath); err != nil || fi.Size() == 0 {
		t.Fatalf("event log empty: fi=%v err=%v", fi, err)
	}
}

// TestDaemonEnableDisableRoundTrip flips a mode over REST and confirms both
// the snapshot and the events agree.
func TestDaemonEnableDisableRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("e2e daemon flow")
	}

	d := startDaemon(t)
	stream := collectEvents(t, d.wsURL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.api.EnableMode(ctx, "hunting"); err != nil {
		t.Fatalf("enable: %v", err)
	}
	waitForEvent(t, stream, "mode.enabled", modeEvent(events.EventModeEnabled, "hunting"))

	if err := d.api.DisableMode(ctx, "hunting"); err != nil {
		t.Fatalf("disable: %v", err)
	}
	waitForEvent(t, stream, "mode.disabled", modeEvent(events.EventModeDisabled, "hunting"))

	modes, err := d.api.Modes(ctx)
	if err != nil {
		t.Fatalf("modes: %v", err)
	}
	for _, m := range modes {
		if m.Name == "hunting" && m.Enabled {
			t.Fatal("hunting still enabled after disable")
		}
	}
}
