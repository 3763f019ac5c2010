package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
)

// NewHistoryCommand returns the history subcommand.
func NewHistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent behavior outcomes from the journal",
		Flags: []cli.Flag{
			gatewayFlag(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum records to fetch",
				Value:   20,
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Restrict to a single mode",
			},
		},
		Action: runHistory,
	}
}

func runHistory(ctx context.Context, cmd *cli.Command) error {
	records, err := apiClient(cmd).History(ctx, cmd.Int("limit"), cmd.String("mode"))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no recorded outcomes")
		return nil
	}
	for _, rec := range records {
		line := fmt.Sprintf("%s  %-18s %-9s %s",
			formatWhen(rec.FinishedAt), rec.Mode, rec.Status, rec.Duration)
		if rec.Trigger != "" {
			line += "  (" + rec.Trigger + ")"
		}
		if rec.Message != "" {
			line += "  " + rec.Message
		}
		fmt.Println(line)
	}
	return nil
}

func formatWhen(stamp string) string {
	t, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return stamp
	}
	return t.Local().Format("Jan 02 15:04:05")
}
