//go:build !windows

package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kamusis/nlcmd/internal/app"
	"github.com/kamusis/nlcmd/internal/corpus"
	"github.com/kamusis/nlcmd/internal/embeddings"
	"github.com/kamusis/nlcmd/internal/gate"
	"github.com/kamusis/nlcmd/internal/retrieval"
	"github.com/kamusis/nlcmd/internal/sandbox"
)

// scriptedReader replays lines and then reports EOF.
type scriptedReader struct {
	lines   []string
	prompts []string
}

func (s *scriptedReader) SetPrompt(p string) { s.prompts = append(s.prompts, p) }

func (s *scriptedReader) Readline() (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	l := s.lines[0]
	s.lines = s.lines[1:]
	return l, nil
}

func testApp(t *testing.T) *app.App {
	t.Helper()
	recs := []corpus.Record{
		corpus.NewRecord(0, "echo hello", corpus.Other, "Print a greeting."),
		corpus.NewRecord(1, "mkdir new_folder", corpus.FileManagement, "Create a new folder."),
		corpus.NewRecord(2, "sleep 5", corpus.Other, "Wait for five seconds."),
	}
	prov := embeddings.NewHash(256)
	var vecs []float32
	for _, r := range recs {
		v, err := prov.Embed(context.Background(), r.EmbeddingText())
		if err != nil {
			t.Fatal(err)
		}
		vecs = append(vecs, v...)
	}
	store, err := retrieval.NewStore(recs, vecs, 256, prov.ModelID(), true)
	if err != nil {
		t.Fatal(err)
	}
	svc := retrieval.NewService(store, retrieval.NewEncoder(prov, 256, true), nil, retrieval.Options{}, zerolog.Nop())
	runner := sandbox.New(sandbox.Options{Timeout: 200 * time.Millisecond}, zerolog.Nop())
	return app.New(svc, gate.New(store.Records(), gate.ModeExact), runner, nil, zerolog.Nop())
}

func newTestRepl(t *testing.T, lines ...string) (*repl, *bytes.Buffer, *[]string) {
	t.Helper()
	var out bytes.Buffer
	copied := &[]string{}
	r := &repl{
		app: testApp(t),
		in:  &scriptedReader{lines: lines},
		out: &out,
		err: &out,
		copy: func(s string) error {
			*copied = append(*copied, s)
			return nil
		},
	}
	return r, &out, copied
}

// position returns the 1-based rank of command for query.
func position(t *testing.T, a *app.App, query, command string) string {
	t.Helper()
	ex, err := a.Suggest(context.Background(), retrieval.Query{Text: query})
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range ex.Results {
		if r.Command == command {
			return strconv.Itoa(i + 1)
		}
	}
	t.Fatalf("%q not suggested for %q", command, query)
	return ""
}

func TestRepl_CopyFilledCommand(t *testing.T) {
	r, out, copied := newTestRepl(t, "create a folder named reports", "1", "c", "exit")
	if err := r.loop(context.Background()); err != nil {
		t.Fatalf("loop: %v", err)
	}
	if len(*copied) != 1 || (*copied)[0] != "mkdir reports" {
		t.Fatalf("copied = %v, want [mkdir reports]", *copied)
	}
	if !strings.Contains(out.String(), "copied to clipboard") {
		t.Errorf("output missing copy confirmation:\n%s", out.String())
	}
	if !strings.HasSuffix(strings.TrimSpace(out.String()), "bye") {
		t.Errorf("expected bye at end:\n%s", out.String())
	}
}

func TestRepl_RunAllowedCommand(t *testing.T) {
	a := testApp(t)
	pick := position(t, a, "print a greeting", "echo hello")

	r, out, _ := newTestRepl(t, "print a greeting", pick, "r")
	r.app = a
	if err := r.loop(context.Background()); err != nil {
		t.Fatalf("loop: %v", err)
	}
	if !strings.Contains(out.String(), "hello\n") {
		t.Errorf("expected command output:\n%s", out.String())
	}
}

func TestRepl_RunRejectedFilledCommand(t *testing.T) {
	r, out, _ := newTestRepl(t, "create a folder named reports", "1", "r", "quit")
	if err := r.loop(context.Background()); err != nil {
		t.Fatalf("loop: %v", err)
	}
	if !strings.Contains(out.String(), "Command not allowed") {
		t.Errorf("expected rejection:\n%s", out.String())
	}
}

func TestRepl_InvalidPickCancels(t *testing.T) {
	for _, pick := range []string{"", "x", "0", "99"} {
		r, out, copied := newTestRepl(t, "create a folder named reports", pick, "exit")
		if err := r.loop(context.Background()); err != nil {
			t.Fatalf("pick %q: loop: %v", pick, err)
		}
		if !strings.Contains(out.String(), "cancelled") {
			t.Errorf("pick %q: expected cancelled:\n%s", pick, out.String())
		}
		if len(*copied) != 0 {
			t.Errorf("pick %q: nothing should be copied", pick)
		}
	}
}

func TestRepl_OtherActionCancels(t *testing.T) {
	r, out, copied := newTestRepl(t, "create a folder named reports", "1", "n")
	if err := r.loop(context.Background()); err != nil {
		t.Fatalf("loop: %v", err)
	}
	if !strings.Contains(out.String(), "cancelled") || len(*copied) != 0 {
		t.Errorf("expected cancel without copy:\n%s", out.String())
	}
}

func TestRepl_BlankLinesAndEOF(t *testing.T) {
	r, out, _ := newTestRepl(t, "", "   ")
	if err := r.loop(context.Background()); err != nil {
		t.Fatalf("loop: %v", err)
	}
	if strings.TrimSpace(out.String()) != "bye" {
		t.Errorf("output = %q, want bye", out.String())
	}
}

func TestReportOutcome(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := reportOutcome(&stdout, &stderr, nil, gate.ErrCommandNotAllowed)
	if err == nil || err.Error() != "Command not allowed" {
		t.Errorf("rejection: got %v", err)
	}

	err = reportOutcome(&stdout, &stderr, &sandbox.Outcome{Stdout: "out\n", Stderr: "warn\n", ExitCode: 3, Status: sandbox.StatusExited}, nil)
	var ec *exitCodeError
	if !errors.As(err, &ec) || ec.code != 3 {
		t.Errorf("non-zero exit: got %v", err)
	}
	if stdout.String() != "out\n" || stderr.String() != "warn\n" {
		t.Errorf("streams = %q / %q", stdout.String(), stderr.String())
	}

	timeout := &sandbox.ExecError{Kind: sandbox.ErrTimeout, Command: "sleep 5"}
	err = reportOutcome(&stdout, &stderr, &sandbox.Outcome{Status: sandbox.StatusTimeout, ExitCode: -1}, timeout)
	if !errors.As(err, &ec) || ec.code != exitTimeout {
		t.Errorf("timeout: got %v", err)
	}

	if err := reportOutcome(&stdout, &stderr, &sandbox.Outcome{Status: sandbox.StatusOK}, nil); err != nil {
		t.Errorf("ok: got %v", err)
	}
}
