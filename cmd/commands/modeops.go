package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// NewEnableCommand returns the enable subcommand.
func NewEnableCommand() *cli.Command {
	return &cli.Command{
		Name:      "enable",
		Usage:     "Enable a behavior mode",
		ArgsUsage: "<mode>",
		Flags:     []cli.Flag{gatewayFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				return fmt.Errorf("usage: reflex enable <mode>")
			}
			if err := apiClient(cmd).EnableMode(ctx, name); err != nil {
				return err
			}
			fmt.Printf("mode %q enabled\n", name)
			return nil
		},
	}
}

// NewDisableCommand returns the disable subcommand.
func NewDisableCommand() *cli.Command {
	return &cli.Command{
		Name:      "disable",
		Usage:     "Disable a behavior mode",
		ArgsUsage: "<mode>",
		Flags:     []cli.Flag{gatewayFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				return fmt.Errorf("usage: reflex disable <mode>")
			}
			if err := apiClient(cmd).DisableMode(ctx, name); err != nil {
				return err
			}
			fmt.Printf("mode %q disabled\n", name)
			return nil
		},
	}
}

// NewPauseCommand returns the pause subcommand.
func NewPauseCommand() *cli.Command {
	return &cli.Command{
		Name:      "pause",
		Usage:     "Pause a behavior mode until the agent goes idle",
		ArgsUsage: "<mode>",
		Flags:     []cli.Flag{gatewayFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				return fmt.Errorf("usage: reflex pause <mode>")
			}
			if err := apiClient(cmd).PauseMode(ctx, name); err != nil {
				return err
			}
			fmt.Printf("mode %q paused until the agent goes idle\n", name)
			return nil
		},
	}
}
