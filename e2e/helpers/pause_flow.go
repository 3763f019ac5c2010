// Command pause_flow exercises the pause protocol against a running daemon.
//
// It connects to a reflex gateway, claims the agent with a short task, pauses
// a mode while the task runs, then verifies the pause lifts on its own once
// the agent goes idle. There is no direct unpause; the idle edge is the only
// way back.
//
// Usage: pause_flow -gateway http://127.0.0.1:18520 -mode torch_placing
//
// Exit codes:
//
//	0 = all checks passed
//	1 = a check failed
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dohr-michael/reflex/clients/api"
	wsclient "github.com/dohr-michael/reflex/clients/ws"
	"github.com/dohr-michael/reflex/internal/events"
)

func main() {
	gatewayURL := flag.String("gateway", "http://127.0.0.1:18520", "Gateway base URL")
	mode := flag.String("mode", "torch_placing", "Mode to pause")
	taskName := flag.String("task", "e2e_probe", "Task name used to claim the agent")
	taskFor := flag.Duration("task-for", 2*time.Second, "How long the task holds the agent")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, *gatewayURL, *mode, *taskName, *taskFor); err != nil {
		fmt.Fprintf(os.Stderr, "FAIL: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, gatewayURL, mode, taskName string, taskFor time.Duration) error {
	// ── Step 1: REST reachable, controller ticking ──────────────────────
	client := api.New(gatewayURL)
	health, err := client.Health(ctx)
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}
	fmt.Printf("CHECK gateway healthy: ticks=%d active=%q\n", health.Ticks, health.ActiveMode)

	modes, err := client.Modes(ctx)
	if err != nil {
		return fmt.Errorf("modes: %w", err)
	}
	found := false
	for _, m := range modes {
		if m.Name == mode {
			found = true
			if !m.Enabled {
				return fmt.Errorf("mode %s is disabled, enable it first", mode)
			}
		}
	}
	if !found {
		return fmt.Errorf("mode %s not registered", mode)
	}
	fmt.Printf("CHECK mode present: %s\n", mode)

	// ── Step 2: Subscribe to the event stream ───────────────────────────
	wsURL := "ws" + strings.TrimPrefix(gatewayURL, "http") + "/api/ws"
	stream, err := wsclient.Dial(ctx, wsURL)
	if err != nil {
		return fmt.Errorf("dial stream: %w", err)
	}
	defer stream.Close()
	fmt.Println("CHECK event stream connected")

	// ── Step 3: Claim the agent, then pause under cover of the task ─────
	// Pausing while idle is pointless: the very next tick lifts it.
	if err := client.BeginTask(ctx, taskName, taskFor); err != nil {
		return fmt.Errorf("begin task: %w", err)
	}
	fmt.Printf("CHECK task started: %s for %s\n", taskName, taskFor)

	if err := client.PauseMode(ctx, mode); err != nil {
		return fmt.Errorf("pause: %w", err)
	}

	// ── Step 4: Watch the protocol play out on the wire ─────────────────
	paused := false
	taskDone := false
	for {
		frame, err := stream.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("timeout waiting for frames")
			}
			return fmt.Errorf("read frame: %w", err)
		}
		if frame.Event == "" {
			continue
		}
		var evt events.Event
		if err := json.Unmarshal(frame.Payload, &evt); err != nil {
			continue
		}

		switch evt.Type {
		case events.EventModePaused:
			if name, _ := evt.Payload["mode"].(string); name == mode {
				paused = true
				fmt.Printf("CHECK mode paused: %s\n", mode)
			}

		case events.EventTaskFinished:
			if name, _ := evt.Payload["name"].(string); name == taskName {
				taskDone = true
				fmt.Printf("CHECK task finished: %s\n", taskName)
			}

		case events.EventModeUnpaused:
			name, _ := evt.Payload["mode"].(string)
			if name != mode {
				continue
			}
			if !paused {
				return fmt.Errorf("unpause before pause was observed")
			}
			if !taskDone {
				return fmt.Errorf("unpaused while the task still ran")
			}
			fmt.Println("CHECK auto-unpaused on idle")
			return verifyUnpaused(ctx, client, mode)
		}
	}
}

// verifyUnpaused confirms the snapshot agrees with the stream.
func verifyUnpaused(ctx context.Context, client *api.Client, mode string) error {
	modes, err := client.Modes(ctx)
	if err != nil {
		return fmt.Errorf("modes after unpause: %w", err)
	}
	for _, m := range modes {
		if m.Name == mode && m.Paused {
			return fmt.Errorf("snapshot still shows %s paused", mode)
		}
	}
	fmt.Println("CHECK all flow checks passed")
	return nil
}
