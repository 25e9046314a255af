package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/kamusis/nlcmd/internal/app"
	"github.com/kamusis/nlcmd/internal/config"
	"github.com/kamusis/nlcmd/internal/retrieval"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive loop: describe a task, pick a command, run or copy it",
	Long: `Start an interactive session. Type what you want to do, pick one of the
numbered suggestions, then press r to run it or c to copy it to the clipboard.
Any other answer cancels. Type exit or quit (or press Ctrl-D) to leave.`,
	Args: cobra.NoArgs,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

// lineReader is the part of *readline.Instance the loop uses.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(string)
}

const replPrompt = "nlcmd> "

type repl struct {
	app  *app.App
	in   lineReader
	out  io.Writer
	err  io.Writer
	copy func(string) error
}

func runRepl(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := app.Load(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	histFile := ""
	if dir, err := config.NlcmdDir(); err == nil {
		histFile = filepath.Join(dir, "repl_history")
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            replPrompt,
		HistoryFile:       histFile,
		HistoryLimit:      500,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("cannot initialise readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(rl.Stdout(), "nlcmd %s, %d commands loaded. Type exit to quit.\n", version, a.Retrieval.Store().Len())
	r := &repl{app: a, in: rl, out: rl.Stdout(), err: rl.Stderr(), copy: clipboard.WriteAll}
	return r.loop(cmd.Context())
}

// loop reads queries until exit, quit or EOF.
func (r *repl) loop(ctx context.Context) error {
	for {
		r.in.SetPrompt(replPrompt)
		line, err := r.in.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.out, "bye")
			return nil
		}
		if err != nil {
			return err
		}

		query := strings.TrimSpace(line)
		switch strings.ToLower(query) {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(r.out, "bye")
			return nil
		}

		if err := r.handle(ctx, query); err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out, "bye")
				return nil
			}
			printReplErr(r.err, err)
		}
	}
}

// handle runs one query through suggest, pick and action.
func (r *repl) handle(ctx context.Context, query string) error {
	sctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	ex, err := r.app.Suggest(sctx, retrieval.Query{Text: query})
	cancel()
	if err != nil {
		return err
	}
	printSuggestions(r.out, ex.Results)
	if len(ex.Results) == 0 {
		return nil
	}

	pick, err := r.ask(fmt.Sprintf("pick 1-%d (enter to skip)> ", len(ex.Results)))
	if err != nil {
		return err
	}
	n, convErr := strconv.Atoi(pick)
	if convErr != nil || n < 1 || n > len(ex.Results) {
		fmt.Fprintln(r.out, "cancelled")
		return nil
	}
	chosen := ex.Results[n-1].Command
	fmt.Fprintf(r.out, "selected: %s\n", styleCommand.Render(chosen))

	action, err := r.ask("[r]un, [c]opy, anything else cancels> ")
	if err != nil {
		return err
	}
	switch strings.ToLower(action) {
	case "r", "run":
		out, err := r.app.Run(ctx, chosen)
		if rerr := reportOutcome(r.out, r.err, out, err); rerr != nil {
			var ec *exitCodeError
			if errors.As(rerr, &ec) {
				fmt.Fprintf(r.out, "(exit status %d)\n", ec.code)
				return nil
			}
			return rerr
		}
	case "c", "copy":
		if err := r.copy(chosen); err != nil {
			return fmt.Errorf("cannot copy to clipboard: %w", err)
		}
		fmt.Fprintln(r.out, "copied to clipboard")
	default:
		fmt.Fprintln(r.out, "cancelled")
	}
	return nil
}

func (r *repl) ask(prompt string) (string, error) {
	r.in.SetPrompt(prompt)
	line, err := r.in.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func printReplErr(w io.Writer, err error) {
	fmt.Fprintln(w, styleErr.Render(fmt.Sprintf("✗  %v", err)))
}
