package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
)

// NewTaskCommand returns the task subcommand.
func NewTaskCommand() *cli.Command {
	return &cli.Command{
		Name:      "task",
		Usage:     "Claim the agent for a named external task",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			gatewayFlag(),
			&cli.DurationFlag{
				Name:  "for",
				Usage: "How long the task holds the agent",
				Value: 30 * time.Second,
			},
		},
		Action: runTask,
	}
}

func runTask(ctx context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("usage: reflex task <name> [--for 30s]")
	}
	duration := cmd.Duration("for")
	if duration <= 0 {
		return fmt.Errorf("task duration must be positive, got %s", duration)
	}
	if err := apiClient(cmd).BeginTask(ctx, name, duration); err != nil {
		return err
	}
	fmt.Printf("task %q started, holds the agent for %s\n", name, duration)
	fmt.Println("interrupt-class modes can still preempt it; others wait for idle")
	return nil
}
