package cmd

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/kamusis/nlcmd/internal/corpus"
	"github.com/kamusis/nlcmd/internal/retrieval"
)

var sgrRe = regexp.MustCompile("\x1b\\[[0-9;]*m")

func TestPrintSuggestions_ColumnsAlignWhenStyled(t *testing.T) {
	prev := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.ANSI)
	defer lipgloss.SetColorProfile(prev)

	results := []retrieval.Result{
		{Command: "ls", Category: corpus.FileManagement, Score: 0.91, Description: "List files."},
		{Command: "chmod +x script.sh", Category: corpus.Permissions, Score: -0.25},
		{Command: "pwd", Category: corpus.Navigation, Score: 0.5},
	}
	var buf bytes.Buffer
	printSuggestions(&buf, results)
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected styled output, got %q", buf.String())
	}

	lines := strings.Split(sgrRe.ReplaceAllString(buf.String(), ""), "\n")
	want := strings.Index(lines[0], "File Management")
	for i, cat := range []string{"File Management", "Permissions", "Navigation"} {
		if got := strings.Index(lines[i], cat); got != want {
			t.Errorf("line %d: category at column %d, want %d\n%s", i, got, want, strings.Join(lines, "\n"))
		}
	}
	if lines[3] != "  1. List files." {
		t.Errorf("description line = %q", lines[3])
	}
}

func TestPrintSuggestions_Empty(t *testing.T) {
	var buf bytes.Buffer
	printSuggestions(&buf, nil)
	if buf.String() != "No matching commands.\n" {
		t.Errorf("got %q", buf.String())
	}
}
