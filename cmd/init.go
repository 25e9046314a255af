package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamusis/nlcmd/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create ~/.nlcmd with a default config and .env template",
	Long: `Initialize nlcmd's home directory (~/.nlcmd, or $NLCMD_HOME).

Writes nlcmd.yaml with defaults and a .env template for provider secrets.
Existing files are never overwritten. Run 'nlcmd index' afterwards.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	// ── 1. Resolve ~/.nlcmd ───────────────────────────────────────────────────
	dir, err := config.NlcmdDir()
	if err != nil {
		return err
	}
	cfgPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	printOK("", fmt.Sprintf("nlcmd directory ready: %s", dir))

	// ── 2. Write nlcmd.yaml if missing ────────────────────────────────────────
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg, err := config.DefaultConfig()
		if err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Config written: %s", cfgPath))
	} else {
		printSkip("", fmt.Sprintf("Config already exists: %s", cfgPath))
	}

	// ── 3. .env template ──────────────────────────────────────────────────────
	envPath, err := config.DotEnvPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(envPath); err == nil {
		printSkip("", fmt.Sprintf(".env already exists: %s", envPath))
	} else {
		if err := config.EnsureDotEnvTemplate(); err != nil {
			return err
		}
		printOK("", fmt.Sprintf(".env template written: %s", envPath))
	}

	fmt.Println("\n✓  nlcmd init complete. Run 'nlcmd index' to build the command index.")
	return nil
}
