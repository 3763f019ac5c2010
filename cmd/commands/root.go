package commands

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/dohr-michael/reflex/clients/api"
	"github.com/dohr-michael/reflex/internal/config"
)

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "reflex",
		Usage: "Reactive behavior controller for an autonomous agent",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.ConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			NewInitCommand(),
			NewRunCommand(),
			NewStatusCommand(),
			NewModesCommand(),
			NewEnableCommand(),
			NewDisableCommand(),
			NewPauseCommand(),
			NewTaskCommand(),
			NewHistoryCommand(),
			NewWatchCommand(),
			NewMCPServeCommand(),
		},
	}
}

// loadConfig loads the config file, falling back to defaults when missing.
func loadConfig(cmd *cli.Command) *config.Config {
	path := cmd.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		slog.Debug("config not found, using defaults", "path", path, "error", err)
		return config.Default()
	}
	return cfg
}

// gatewayFlag is shared by every command that talks to a running daemon.
func gatewayFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "gateway",
		Usage: "Gateway base URL (default from config)",
	}
}

// gatewayBase resolves the daemon base URL from the --gateway flag or the config.
func gatewayBase(cmd *cli.Command) string {
	if base := cmd.String("gateway"); base != "" {
		return base
	}
	cfg := loadConfig(cmd)
	return fmt.Sprintf("http://%s:%d", cfg.Gateway.Host, cfg.Gateway.Port)
}

// apiClient builds a REST client from the --gateway flag or the config.
func apiClient(cmd *cli.Command) *api.Client {
	return api.New(gatewayBase(cmd))
}
