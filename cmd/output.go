package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// ── Unified output helpers ────────────────────────────────────────────────────
// All commands use these functions for consistent icons and indentation.
//
// Icon semantics:
//   ✓  success / healthy
//   ✗  error / failure          (written to stderr)
//   ⚠  warning
//   ○  skipped / not applicable
//   ~  neutral info

var (
	styleSection = lipgloss.NewStyle().Bold(true)
	styleOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleErr     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleDim     = lipgloss.NewStyle().Faint(true)
	styleCommand = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
)

// printSection prints a top-level section header, e.g. "=== Index ===".
func printSection(title string) {
	fmt.Printf("\n%s\n", styleSection.Render("=== "+title+" ==="))
}

func iconLine(icon, name, msg string) string {
	if name == "" {
		return fmt.Sprintf("  %s  %s", icon, msg)
	}
	return fmt.Sprintf("  %s  [%s] %s", icon, name, msg)
}

// printOK prints a success line.
//
//	name = "" → "  ✓  msg"
//	name set  → "  ✓  [name] msg"
func printOK(name, msg string) {
	fmt.Println(iconLine(styleOK.Render("✓"), name, msg))
}

// printErr prints an error line to stderr.
func printErr(name, msg string) {
	fmt.Fprintln(os.Stderr, iconLine(styleErr.Render("✗"), name, msg))
}

// printWarn prints a warning line.
func printWarn(name, msg string) {
	fmt.Println(iconLine(styleWarn.Render("⚠"), name, msg))
}

// printSkip prints a skipped / not-applicable line.
func printSkip(name, msg string) {
	fmt.Println(iconLine(styleDim.Render("○"), name, msg))
}

// printInfo prints a neutral informational line.
func printInfo(name, msg string) {
	fmt.Println(iconLine("~", name, msg))
}
