package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	reflexmcp "github.com/dohr-michael/reflex/internal/mcp"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewMCPServeCommand returns the mcp-serve subcommand.
func NewMCPServeCommand() *cli.Command {
	return &cli.Command{
		Name:   "mcp-serve",
		Usage:  "Expose reflex control tools as an MCP server (stdio)",
		Flags:  []cli.Flag{gatewayFlag()},
		Action: runMCPServe,
	}
}

func runMCPServe(ctx context.Context, cmd *cli.Command) error {
	// Setup logging to stderr (stdout is used for MCP stdio transport)
	if cmd.Bool("debug") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	}

	server := reflexmcp.NewServer(apiClient(cmd))
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}
