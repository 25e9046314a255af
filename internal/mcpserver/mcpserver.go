// Package mcpserver exposes suggestions and gated execution as MCP tools
// over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/kamusis/nlcmd/internal/app"
	"github.com/kamusis/nlcmd/internal/gate"
	"github.com/kamusis/nlcmd/internal/logging"
	"github.com/kamusis/nlcmd/internal/retrieval"
	"github.com/kamusis/nlcmd/internal/sandbox"
)

// Source yields the App serving the next tool call.
type Source interface {
	Current() *app.App
}

// New builds an MCP server with the suggest_command and run_command tools.
func New(src Source, version string, log zerolog.Logger) *server.MCPServer {
	log = logging.Component(log, "mcp")
	s := server.NewMCPServer("nlcmd", version)

	suggestTool := mcp.NewTool("suggest_command",
		mcp.WithDescription("Suggest shell commands for a natural-language request, best match first"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("What the user wants to do, in plain English"),
		),
		mcp.WithNumber("k",
			mcp.Description("Maximum number of suggestions (default 3)"),
		),
	)
	s.AddTool(suggestTool, suggestHandler(src, log))

	runTool := mcp.NewTool("run_command",
		mcp.WithDescription("Run a suggested command if it is on the allow-list; returns stdout, stderr and exit code"),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("Exact command text as returned by suggest_command"),
		),
	)
	s.AddTool(runTool, runHandler(src, log))

	return s
}

// ServeStdio blocks serving s on stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func suggestHandler(src Source, log zerolog.Logger) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, ok := request.Params.Arguments["query"].(string)
		if !ok {
			return mcp.NewToolResultText("error: query must be a string"), nil
		}
		k := 0
		if v, ok := request.Params.Arguments["k"].(float64); ok {
			k = int(v)
		}

		ex, err := src.Current().Suggest(ctx, retrieval.Query{Text: query, K: k})
		if err != nil {
			log.Warn().Err(err).Str("query", query).Msg("suggest_command failed")
			return mcp.NewToolResultText("error: " + err.Error()), nil
		}
		return jsonResult(ex.Results)
	}
}

type runResult struct {
	Command  string `json:"command"`
	Status   string `json:"status"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
	Timeout  bool   `json:"timeout,omitempty"`
	Error    string `json:"error,omitempty"`
}

func runHandler(src Source, log zerolog.Logger) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		command, ok := request.Params.Arguments["command"].(string)
		if !ok || strings.TrimSpace(command) == "" {
			return mcp.NewToolResultText("error: command must be a non-empty string"), nil
		}

		out, err := src.Current().Run(ctx, command)
		if errors.Is(err, gate.ErrCommandNotAllowed) {
			log.Warn().Str("command", command).Msg("run_command rejected")
			return mcp.NewToolResultText("error: Command not allowed"), nil
		}

		res := runResult{
			Command:  command,
			Status:   string(out.Status),
			Stdout:   out.Stdout,
			Stderr:   out.Stderr,
			ExitCode: out.ExitCode,
		}
		if err != nil {
			res.Error = err.Error()
			res.Timeout = errors.Is(err, sandbox.ErrTimeout)
		}
		return jsonResult(res)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error: cannot encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
