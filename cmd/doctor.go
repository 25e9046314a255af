package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kamusis/nlcmd/internal/app"
	"github.com/kamusis/nlcmd/internal/config"
	"github.com/kamusis/nlcmd/internal/corpus"
	"github.com/kamusis/nlcmd/internal/corpus/index"
	"github.com/kamusis/nlcmd/internal/embeddings"
	"github.com/kamusis/nlcmd/internal/gate"
	"github.com/kamusis/nlcmd/internal/sandbox"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight environment checks",
	Long: `Check that nlcmd's config, index, embeddings provider and shell are usable.
Run this command when something seems wrong, or before filing a bug report.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(_ *cobra.Command, _ []string) error {
	allOK := true
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("nlcmd doctor")
	fmt.Println()

	// ── Check 1: nlcmd.yaml ───────────────────────────────────────────────────
	fmt.Println("[ nlcmd.yaml ]")
	cfgPath, _ := config.ConfigPath()
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		printWarn("", fmt.Sprintf("%s not found, using defaults (run 'nlcmd init')", cfgPath))
	}
	cfg, loadErr := config.Load()
	if loadErr != nil {
		failD("cannot parse config: %v", loadErr)
	} else {
		printOK("", fmt.Sprintf("config valid: provider=%s gate=%s top_k=%d", cfg.Embeddings.Provider, cfg.Gate.Mode, cfg.TopK))
		if _, err := gate.ParseMode(cfg.Gate.Mode); err != nil {
			failD("%v", err)
		}
	}
	fmt.Println()

	// ── Check 2: .env ─────────────────────────────────────────────────────────
	fmt.Println("[ .env ]")
	envPath, _ := config.DotEnvPath()
	if _, err := config.LoadDotEnv(); err != nil {
		failD("%v", err)
	} else if _, err := os.Stat(envPath); os.IsNotExist(err) {
		printSkip("", fmt.Sprintf("%s not present", envPath))
	} else {
		printOK("", fmt.Sprintf("readable: %s", envPath))
	}
	fmt.Println()

	if loadErr != nil {
		printWarn("", "remaining checks skipped (config not loaded)")
		return doctorResult(allOK)
	}

	// ── Check 3: dataset ──────────────────────────────────────────────────────
	fmt.Println("[ Dataset ]")
	if recs, err := corpus.Resolve(cfg.Dataset); err != nil {
		failD("%v", err)
	} else if cfg.Dataset == "" {
		printOK("", fmt.Sprintf("built-in dataset: %d command(s)", len(recs)))
	} else {
		printOK("", fmt.Sprintf("%s: %d command(s)", cfg.Dataset, len(recs)))
	}
	fmt.Println()

	// ── Check 4: embeddings provider ──────────────────────────────────────────
	fmt.Println("[ Embeddings provider ]")
	prov, provErr := app.OpenProvider(cfg)
	if provErr != nil {
		failD("%v", provErr)
	} else {
		defer embeddings.Close(prov)
		printOK("", fmt.Sprintf("configured: %s", prov.ModelID()))
	}
	fmt.Println()

	// ── Check 5: index ────────────────────────────────────────────────────────
	fmt.Println("[ Index ]")
	idx, idxErr := index.Load(cfg.IndexDir)
	switch {
	case errors.Is(idxErr, os.ErrNotExist):
		failD("no index in %s (run 'nlcmd index')", cfg.IndexDir)
	case idxErr != nil:
		failD("cannot load index: %v", idxErr)
	default:
		printOK("", fmt.Sprintf("%d record(s), dim %d, built %s", len(idx.Entries), idx.Manifest.Dim, idx.Manifest.CreatedAt))
		if provErr == nil {
			if idx.Manifest.ModelID == prov.ModelID() {
				printOK("", "index model matches provider")
			} else {
				failD("model mismatch: index=%s provider=%s (run 'nlcmd index --force')", idx.Manifest.ModelID, prov.ModelID())
			}
		}
	}
	fmt.Println()

	// ── Check 6: shell ────────────────────────────────────────────────────────
	fmt.Println("[ Shell ]")
	shell := sandbox.New(sandbox.Options{Shell: cfg.Sandbox.Shell}, zerolog.Nop()).Shell()
	if p, err := exec.LookPath(shell); err != nil {
		failD("shell %q not found: %v", shell, err)
	} else {
		printOK("", fmt.Sprintf("%s (timeout %s)", p, cfg.Sandbox.Timeout))
	}
	fmt.Println()

	return doctorResult(allOK)
}

func doctorResult(allOK bool) error {
	if allOK {
		fmt.Println("✓  All checks passed.")
		return nil
	}
	return fmt.Errorf("one or more checks failed")
}
