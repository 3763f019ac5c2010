package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dohr-michael/reflex/clients/api"
)

// NewServer creates an MCP server whose tools proxy a running reflex
// gateway. Tool calls return a tool error when the daemon is unreachable.
func NewServer(client *api.Client) *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "reflex",
		Version: "0.1.0",
	}, nil)

	ts := &toolset{client: client}

	server.AddTool(&mcpsdk.Tool{
		Name:        "modes_list",
		Description: "List all behavior modes with their enabled, paused and active state",
		InputSchema: emptySchema(),
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		return ts.modesList(ctx)
	})

	server.AddTool(&mcpsdk.Tool{
		Name:        "mode_enable",
		Description: "Enable a behavior mode so its trigger may fire again",
		InputSchema: nameSchema(),
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		return ts.enableMode(ctx, req.Params.Arguments)
	})

	server.AddTool(&mcpsdk.Tool{
		Name:        "mode_disable",
		Description: "Disable a behavior mode so it never triggers",
		InputSchema: nameSchema(),
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		return ts.disableMode(ctx, req.Params.Arguments)
	})

	server.AddTool(&mcpsdk.Tool{
		Name:        "mode_pause",
		Description: "Pause a behavior mode until the agent next goes idle",
		InputSchema: nameSchema(),
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		return ts.pauseMode(ctx, req.Params.Arguments)
	})

	server.AddTool(&mcpsdk.Tool{
		Name:        "history_recent",
		Description: "Fetch recent behavior outcomes from the journal, newest first",
		InputSchema: historySchema(),
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		return ts.historyRecent(ctx, req.Params.Arguments)
	})

	slog.Debug("mcp server ready", "tools", 5)

	return server
}

// toolset holds the gateway client shared by all tool handlers.
type toolset struct {
	client *api.Client
}

func (ts *toolset) modesList(ctx context.Context) (*mcpsdk.CallToolResult, error) {
	modes, err := ts.client.Modes(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(modes)
}

func (ts *toolset) enableMode(ctx context.Context, raw json.RawMessage) (*mcpsdk.CallToolResult, error) {
	name, err := parseName(raw)
	if err != nil {
		return errorResult(err), nil
	}
	if err := ts.client.EnableMode(ctx, name); err != nil {
		return errorResult(err), nil
	}
	return textResult(fmt.Sprintf("mode %q enabled", name)), nil
}

func (ts *toolset) disableMode(ctx context.Context, raw json.RawMessage) (*mcpsdk.CallToolResult, error) {
	name, err := parseName(raw)
	if err != nil {
		return errorResult(err), nil
	}
	if err := ts.client.DisableMode(ctx, name); err != nil {
		return errorResult(err), nil
	}
	return textResult(fmt.Sprintf("mode %q disabled", name)), nil
}

func (ts *toolset) pauseMode(ctx context.Context, raw json.RawMessage) (*mcpsdk.CallToolResult, error) {
	name, err := parseName(raw)
	if err != nil {
		return errorResult(err), nil
	}
	if err := ts.client.PauseMode(ctx, name); err != nil {
		return errorResult(err), nil
	}
	return textResult(fmt.Sprintf("mode %q paused until the agent goes idle", name)), nil
}

func (ts *toolset) historyRecent(ctx context.Context, raw json.RawMessage) (*mcpsdk.CallToolResult, error) {
	args := struct {
		Limit int    `json:"limit"`
		Mode  string `json:"mode"`
	}{Limit: 20}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return errorResult(fmt.Errorf("invalid arguments: %w", err)), nil
		}
	}
	if args.Limit < 1 {
		args.Limit = 20
	}

	records, err := ts.client.History(ctx, args.Limit, args.Mode)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(records)
}

func parseName(raw json.RawMessage) (string, error) {
	var args struct {
		Name string `json:"name"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return "", fmt.Errorf("invalid arguments: %w", err)
		}
	}
	if args.Name == "" {
		return "", fmt.Errorf("name is required")
	}
	return args.Name, nil
}
