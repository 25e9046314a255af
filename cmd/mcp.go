package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kamusis/nlcmd/internal/app"
	"github.com/kamusis/nlcmd/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve suggest_command and run_command over MCP stdio",
	Long: `Run an MCP server on stdin/stdout so AI assistants can ask for command
suggestions and run allow-listed commands. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(_ *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := app.Load(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return mcpserver.ServeStdio(mcpserver.New(app.NewLive(a), version, log))
}
