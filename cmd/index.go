package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamusis/nlcmd/internal/app"
)

var (
	flagIndexDataset string
	flagIndexForce   bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or refresh the command embedding index",
	Long: `Embed every command in the dataset and install the index in index_dir.

Vectors whose text did not change are reused from the previous index unless
--force is given or the embeddings model changed.`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&flagIndexDataset, "dataset", "", "CSV dataset to index (default: configured dataset or the built-in one)")
	indexCmd.Flags().BoolVar(&flagIndexForce, "force", false, "Re-embed every record even if unchanged")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if flagIndexDataset != "" {
		cfg.Dataset = flagIndexDataset
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	printSection("nlcmd index")
	idx, stats, err := app.BuildIndex(ctx, cfg, flagIndexForce, os.Stderr, log)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	printOK("", fmt.Sprintf("index written: %s", cfg.IndexDir))
	printInfo("", fmt.Sprintf("model %s, dim %d, %d record(s)", idx.Manifest.ModelID, idx.Manifest.Dim, len(idx.Entries)))
	printInfo("", fmt.Sprintf("%d embedded, %d reused", stats.Embedded, stats.Reused))
	return nil
}
