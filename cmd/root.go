package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kamusis/nlcmd/internal/config"
	"github.com/kamusis/nlcmd/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:          "nlcmd",
	Short:        "nlcmd turns plain-English requests into shell commands",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `nlcmd suggests shell commands for a natural-language request by ranking a
command corpus with sentence embeddings, fills in names taken from the
request, and runs allow-listed commands in a time-limited subprocess.`,
}

var flagLogLevel string

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Override log level (debug, info, warn, error)")
}

// exitCodeError makes Execute exit with a specific status without printing.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// loadConfig reads nlcmd.yaml and returns it with a logger writing to stderr.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("cannot load config: %w\nRun 'nlcmd init' first.", err)
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	return cfg, logging.New(cfg.Log, os.Stderr), nil
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var ec *exitCodeError
		if errors.As(err, &ec) {
			os.Exit(ec.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
