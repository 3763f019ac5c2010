package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/dohr-michael/reflex/clients/api"
)

// NewModesCommand returns the modes subcommand.
func NewModesCommand() *cli.Command {
	return &cli.Command{
		Name:  "modes",
		Usage: "List behavior modes and their state",
		Flags: []cli.Flag{
			gatewayFlag(),
			&cli.BoolFlag{
				Name:  "doc",
				Usage: "Render the full mode documentation",
			},
		},
		Action: runModes,
	}
}

func runModes(ctx context.Context, cmd *cli.Command) error {
	client := apiClient(cmd)

	if cmd.Bool("doc") {
		return printModesDoc(ctx, client)
	}

	text, err := client.ModesText(ctx)
	if err != nil {
		return err
	}
	fmt.Print(text)
	if !strings.HasSuffix(text, "\n") {
		fmt.Println()
	}
	return nil
}

// printModesDoc renders a markdown summary of every mode, prettified when
// stdout is a terminal.
func printModesDoc(ctx context.Context, client *api.Client) error {
	modes, err := client.Modes(ctx)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("# Behavior modes\n\n")
	b.WriteString("Listed in priority order. On every tick the first triggered mode wins and the rest are skipped.\n\n")
	for _, m := range modes {
		fmt.Fprintf(&b, "## %s\n\n", m.Name)
		if m.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", m.Description)
		}
		fmt.Fprintf(&b, "State: **%s**\n\n", modeStateLabel(m.Enabled, m.Paused, m.Active))
	}
	doc := b.String()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Print(doc)
		return nil
	}

	width := 100
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && w < width {
		width = w
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		fmt.Print(doc)
		return nil
	}
	rendered, err := renderer.Render(doc)
	if err != nil {
		fmt.Print(doc)
		return nil
	}
	fmt.Println(strings.TrimRight(rendered, "\n"))
	return nil
}

func modeStateLabel(enabled, paused, active bool) string {
	switch {
	case active:
		return "active now"
	case paused:
		return "paused until idle"
	case enabled:
		return "enabled"
	default:
		return "disabled"
	}
}
