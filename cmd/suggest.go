package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/kamusis/nlcmd/internal/app"
	"github.com/kamusis/nlcmd/internal/retrieval"
)

var (
	flagSuggestK        int
	flagSuggestMinScore float64
	flagSuggestJSON     bool
	flagSuggestDebug    bool
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <query...>",
	Short: "Suggest shell commands for a plain-English request",
	Example: `  nlcmd suggest create a folder named reports
  nlcmd suggest "copy notes.txt to backup.txt" --k 1 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().IntVar(&flagSuggestK, "k", 0, "Number of suggestions to show (default: top_k from config)")
	suggestCmd.Flags().Float64Var(&flagSuggestMinScore, "min-score", 0, "Minimum cosine similarity to include; 0 disables min_score from config")
	suggestCmd.Flags().BoolVar(&flagSuggestJSON, "json", false, "Print results as JSON")
	suggestCmd.Flags().BoolVar(&flagSuggestDebug, "debug", false, "Show the category filter decision and extracted entities")
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := app.Load(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	q := retrieval.Query{Text: strings.Join(args, " "), K: flagSuggestK}
	if cmd.Flags().Changed("min-score") {
		q.MinScore = &flagSuggestMinScore
	}
	ex, err := a.Suggest(ctx, q)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if flagSuggestJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if flagSuggestDebug {
			return enc.Encode(ex)
		}
		return enc.Encode(ex.Results)
	}

	if flagSuggestDebug {
		printExplanation(w, ex)
	}
	printSuggestions(w, ex.Results)
	return nil
}

// printSuggestions writes a numbered, aligned list of results. Columns are
// padded by visible width before styling, so colour codes do not skew them.
func printSuggestions(w io.Writer, results []retrieval.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No matching commands.")
		return
	}
	digits := len(strconv.Itoa(len(results)))
	width := 0
	for _, r := range results {
		width = max(width, lipgloss.Width(r.Command))
	}
	for i, r := range results {
		pad := strings.Repeat(" ", width-lipgloss.Width(r.Command))
		fmt.Fprintf(w, "  %*d.  [%6.3f]  %s%s  %s\n", digits, i+1, r.Score,
			styleCommand.Render(r.Command), pad, styleDim.Render(r.Category.String()))
	}
	for i, r := range results {
		if r.Description != "" {
			fmt.Fprintf(w, "  %*d. %s\n", digits, i+1, r.Description)
		}
	}
}

func printExplanation(w io.Writer, ex *retrieval.Explanation) {
	cats := make([]string, 0, len(ex.Categories))
	for _, c := range ex.Categories {
		cats = append(cats, c.String())
	}
	if len(cats) == 0 {
		cats = append(cats, "(none, searching all)")
	}
	fmt.Fprintf(w, "query:      %q\n", ex.Query)
	fmt.Fprintf(w, "categories: %s\n", strings.Join(cats, ", "))
	fmt.Fprintf(w, "candidates: %d\n", ex.Candidates)
	if !ex.Entities.IsZero() {
		b, _ := json.Marshal(ex.Entities)
		fmt.Fprintf(w, "entities:   %s\n", b)
	}
	fmt.Fprintln(w)
}
