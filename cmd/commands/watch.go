package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/dohr-michael/reflex/clients/watch"
	wsclient "github.com/dohr-michael/reflex/clients/ws"
	"github.com/dohr-michael/reflex/internal/events"
)

// NewWatchCommand returns the watch subcommand.
func NewWatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Live dashboard of modes and events",
		Flags: []cli.Flag{
			gatewayFlag(),
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "One line per event instead of the dashboard",
			},
		},
		Action: runWatch,
	}
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	base := gatewayBase(cmd)
	wsURL := "ws" + strings.TrimPrefix(base, "http") + "/api/ws"

	if cmd.Bool("plain") || !term.IsTerminal(int(os.Stdout.Fd())) {
		return runWatchPlain(ctx, wsURL)
	}
	return watch.Run(ctx, base, wsURL)
}

// runWatchPlain streams events as plain lines, for logs and pipes.
func runWatchPlain(ctx context.Context, wsURL string) error {
	client, err := wsclient.Dial(ctx, wsURL)
	if err != nil {
		return fmt.Errorf("connect to gateway: %w", err)
	}
	defer client.Close()

	fmt.Fprintln(os.Stderr, "streaming events, ctrl+c to stop")
	for {
		frame, err := client.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("event stream: %w", err)
		}
		if frame.Event == "" {
			continue
		}
		var evt events.Event
		if err := json.Unmarshal(frame.Payload, &evt); err != nil {
			continue
		}
		fmt.Println(plainEventLine(evt))
	}
}

func plainEventLine(evt events.Event) string {
	line := fmt.Sprintf("%s  %-22s", evt.Timestamp.Format("15:04:05"), evt.Type)
	if mode, ok := evt.Payload["mode"].(string); ok {
		line += "  " + mode
	} else if name, ok := evt.Payload["name"].(string); ok {
		line += "  " + name
	}
	if status, ok := evt.Payload["status"].(string); ok {
		line += "  " + status
	}
	return line
}
