// Package gate decides whether a command may be executed.
package gate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kamusis/nlcmd/internal/corpus"
	"github.com/kamusis/nlcmd/internal/extract"
)

// ErrCommandNotAllowed is returned for any command outside the allow-list.
var ErrCommandNotAllowed = errors.New("command not allowed")

// Mode selects how strict the allow-list is.
type Mode string

const (
	// ModeExact permits only literal corpus templates.
	ModeExact Mode = "exact"
	// ModeFilled also permits commands produced by filling a corpus template
	// with plain arguments.
	ModeFilled Mode = "filled"
)

// ParseMode parses a config value; empty means exact.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeExact:
		return ModeExact, nil
	case ModeFilled:
		return ModeFilled, nil
	default:
		return "", fmt.Errorf("unknown gate mode %q (want exact or filled)", s)
	}
}

const shellMeta = ";&|<>$`()\n\r\\*?{}[]~!#"

// argRe is one plain argument: no shell syntax and no leading dash.
const argRe = `[A-Za-z0-9_./+@%,=:][A-Za-z0-9_./+@%,=:-]*`

// AllowList is built once from the corpus and is safe for concurrent use.
type AllowList struct {
	mode    Mode
	allowed map[string]struct{}
	// ModeFilled only.
	patterns []*regexp.Regexp
}

// New builds the allow-list from recs. Each entry is the record's template
// cut at the first " : ".
func New(recs []corpus.Record, mode Mode) *AllowList {
	a := &AllowList{mode: mode, allowed: make(map[string]struct{}, len(recs))}
	bases := map[string]bool{}
	seen := map[string]bool{}
	for _, r := range recs {
		cmd, _ := corpus.SplitTemplate(r.Command)
		a.allowed[cmd] = struct{}{}
		bases[r.Base] = true

		if mode != ModeFilled || seen[cmd] {
			continue
		}
		seen[cmd] = true
		if re := placeholderPattern(cmd); re != nil {
			a.patterns = append(a.patterns, re)
		}
	}

	if mode == ModeFilled {
		if bases[extract.BaseMkdir] {
			a.patterns = append(a.patterns, regexp.MustCompile(`^mkdir \w+$`))
		}
		if bases[extract.BaseCopy] {
			a.patterns = append(a.patterns, regexp.MustCompile(`^cp `+argRe+` `+argRe+`$`))
		}
		if bases[extract.BaseMove] {
			a.patterns = append(a.patterns, regexp.MustCompile(`^mv `+argRe+` `+argRe+`$`))
		}
	}
	return a
}

// placeholderPattern turns a template with file placeholders into an anchored
// pattern accepting any plain file argument in their place.
func placeholderPattern(cmd string) *regexp.Regexp {
	expr := regexp.QuoteMeta(cmd)
	found := false
	for _, p := range extract.Placeholders {
		q := regexp.QuoteMeta(p)
		if strings.Contains(expr, q) {
			expr = strings.ReplaceAll(expr, q, argRe)
			found = true
		}
	}
	if !found {
		return nil
	}
	return regexp.MustCompile("^" + expr + "$")
}

// Mode returns the configured mode.
func (a *AllowList) Mode() Mode { return a.mode }

// Len is the number of distinct literal commands.
func (a *AllowList) Len() int { return len(a.allowed) }

// Check returns nil when cmd may run. Literal matching is exact: no
// trimming, no prefix matching.
func (a *AllowList) Check(cmd string) error {
	if _, ok := a.allowed[cmd]; ok {
		return nil
	}
	if a.mode == ModeFilled && a.filledOK(cmd) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrCommandNotAllowed, cmd)
}

func (a *AllowList) filledOK(cmd string) bool {
	if strings.ContainsAny(cmd, shellMeta) {
		return false
	}
	for _, re := range a.patterns {
		if re.MatchString(cmd) {
			return true
		}
	}
	return false
}
