package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/reflex/internal/heartbeat"
	"github.com/dohr-michael/reflex/internal/storage"
)

// NewStatusCommand returns the status subcommand.
func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show daemon status and recent activity",
		Flags:  []cli.Flag{gatewayFlag()},
		Action: runStatus,
	}
}

func runStatus(ctx context.Context, cmd *cli.Command) error {
	cfg := loadConfig(cmd)

	status, hb, err := heartbeat.Check(resolvePath(cfg.Heartbeat.Path), 2*time.Minute)
	if err != nil {
		return fmt.Errorf("check heartbeat: %w", err)
	}

	switch status {
	case heartbeat.StatusAlive:
		fmt.Printf("Daemon: ALIVE (PID %d, uptime %s)\n", hb.PID, hb.Uptime)
		if hb.ActiveMode != "" {
			fmt.Printf("  ticks %d, active mode: %s\n", hb.Ticks, hb.ActiveMode)
		} else {
			fmt.Printf("  ticks %d\n", hb.Ticks)
		}
	case heartbeat.StatusStale:
		fmt.Printf("Daemon: STALE (PID %d, last heartbeat %s ago)\n",
			hb.PID, time.Since(hb.UpdatedAt).Truncate(time.Second))
	case heartbeat.StatusDead:
		fmt.Println("Daemon: NOT RUNNING")
	}

	// Live counters when the gateway answers.
	if status == heartbeat.StatusAlive {
		reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if health, err := apiClient(cmd).Health(reqCtx); err == nil {
			fmt.Printf("  gateway: ok, events dropped: %d", health.EventsDropped)
			if health.Task != "" {
				fmt.Printf(", task: %s", health.Task)
			}
			fmt.Println()
		}
	}

	// Recent events straight from the log file; works with the daemon down.
	recent, err := storage.Tail(resolvePath(cfg.EventLog.Path), 5)
	if err != nil {
		return fmt.Errorf("read event log: %w", err)
	}
	if len(recent) > 0 {
		fmt.Println("\nRecent events:")
		for _, e := range recent {
			line := fmt.Sprintf("  %s  %s", e.Timestamp.Format("15:04:05"), e.Type)
			if mode, ok := e.Payload["mode"].(string); ok {
				line += " " + mode
			}
			fmt.Println(line)
		}
	}

	return nil
}
