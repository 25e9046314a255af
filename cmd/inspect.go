package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kamusis/nlcmd/internal/corpus"
	"github.com/kamusis/nlcmd/internal/corpus/index"
	"github.com/kamusis/nlcmd/internal/extract"
	"github.com/kamusis/nlcmd/internal/gate"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [id|category]",
	Short: "Show the indexed command corpus",
	Long: `Display the index manifest and the commands it holds, grouped by category.

The optional argument narrows the listing:
  - A record id (e.g. 12) shows that record in full
  - A category label (e.g. navigation, "file management") lists that category;
    unknown labels list Other

Example:
  nlcmd inspect
  nlcmd inspect permissions
  nlcmd inspect 12`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(_ *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	idx, err := index.Load(cfg.IndexDir)
	if err != nil {
		return fmt.Errorf("cannot load index: %w\nRun 'nlcmd index' first.", err)
	}
	mode, err := gate.ParseMode(cfg.Gate.Mode)
	if err != nil {
		return err
	}
	recs := idx.Records()
	allow := gate.New(recs, mode)

	if len(args) == 1 {
		if id, convErr := strconv.Atoi(args[0]); convErr == nil {
			if id < 0 || id >= len(recs) {
				return fmt.Errorf("no record with id %d (index has %d)", id, len(recs))
			}
			printRecord(recs[id], allow)
			return nil
		}
	}

	want := corpus.Category(-1)
	if len(args) == 1 {
		want = corpus.ParseCategory(args[0])
	}

	printSection("nlcmd inspect")
	fmt.Printf("  index:    %s\n", cfg.IndexDir)
	fmt.Printf("  model:    %s (dim %d)\n", idx.Manifest.ModelID, idx.Manifest.Dim)
	fmt.Printf("  built:    %s\n", idx.Manifest.CreatedAt)
	fmt.Printf("  gate:     %s, %d allowed command(s)\n", allow.Mode(), allow.Len())

	byCat := make(map[corpus.Category][]corpus.Record)
	for _, r := range recs {
		byCat[r.Category] = append(byCat[r.Category], r)
	}
	for _, c := range corpus.Categories {
		if want >= 0 && c != want {
			continue
		}
		items := byCat[c]
		if len(items) == 0 {
			continue
		}
		fmt.Printf("\n● %s (%d):\n", c, len(items))
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, r := range items {
			fmt.Fprintf(w, "  %d\t%s\t%s\n", r.ID, r.Command, r.Description)
		}
		_ = w.Flush()
	}
	return nil
}

func printRecord(r corpus.Record, allow *gate.AllowList) {
	printSection(fmt.Sprintf("record %d", r.ID))
	fmt.Printf("  command:     %s\n", styleCommand.Render(r.Command))
	fmt.Printf("  category:    %s\n", r.Category)
	fmt.Printf("  base:        %s\n", r.Base)
	if r.Description != "" {
		fmt.Printf("  description: %s\n", r.Description)
	}

	cmdText, _ := corpus.SplitTemplate(r.Command)
	if allow.Check(cmdText) == nil {
		printOK("", "runnable as-is")
	} else {
		printWarn("", "not on the allow-list as written")
	}

	var holes []string
	for _, p := range extract.Placeholders {
		if strings.Contains(cmdText, p) {
			holes = append(holes, p)
		}
	}
	switch {
	case len(holes) > 0:
		printInfo("", "placeholder(s) replaced from the request: "+strings.Join(holes, ", "))
	case r.Base == extract.BaseMkdir, r.Base == extract.BaseCopy, r.Base == extract.BaseMove:
		printInfo("", "arguments filled from names in the request")
	default:
		printSkip("", "no template fill")
	}
}
