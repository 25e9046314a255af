package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kamusis/nlcmd/internal/app"
	"github.com/kamusis/nlcmd/internal/gate"
	"github.com/kamusis/nlcmd/internal/sandbox"
)

// exitTimeout matches the status coreutils timeout(1) uses.
const exitTimeout = 124

var runCmd = &cobra.Command{
	Use:   "run <command>",
	Short: "Run an allow-listed command in the sandbox",
	Long: `Check a command against the allow-list and run it under the configured
shell with a hard timeout. The command's exit status becomes nlcmd's.`,
	Example: `  nlcmd run "ls -la"
  nlcmd run -- mkdir reports`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := app.Load(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.Run(cmd.Context(), strings.Join(args, " "))
	return reportOutcome(cmd.OutOrStdout(), cmd.ErrOrStderr(), out, err)
}

// reportOutcome prints a run result and maps it to the error Execute turns
// into the process exit status.
func reportOutcome(stdout, stderr io.Writer, out *sandbox.Outcome, err error) error {
	if errors.Is(err, gate.ErrCommandNotAllowed) {
		return errors.New("Command not allowed")
	}
	if out != nil {
		fmt.Fprint(stdout, out.Stdout)
		fmt.Fprint(stderr, out.Stderr)
	}
	switch {
	case errors.Is(err, sandbox.ErrTimeout):
		fmt.Fprintln(stderr, styleErr.Render(fmt.Sprintf("✗  %v", err)))
		return &exitCodeError{code: exitTimeout}
	case err != nil:
		return err
	case out.ExitCode != 0:
		return &exitCodeError{code: out.ExitCode}
	}
	return nil
}
