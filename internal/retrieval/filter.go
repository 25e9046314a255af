package retrieval

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/kamusis/nlcmd/internal/corpus"
)

// DefaultKeywords is the built-in category keyword table.
var DefaultKeywords = map[corpus.Category][]string{
	corpus.Navigation: {"where", "current", "directory", "pwd", "cd"},
	corpus.FileManagement: {
		"list", "create", "delete", "copy", "move", "mkdir", "ls", "rm", "mv", "cp",
		"touch", "backup", "file", "hidden", "rename",
	},
	corpus.Permissions: {"permissions", "chmod", "chown", "apparmor", "aa-"},
}

type categoryKeywords struct {
	cat      corpus.Category
	keywords []string
}

// CategoryFilter narrows the candidate set by keyword hits in the query.
// Matching is case-folded substring search, so "ls" also hits "also".
type CategoryFilter struct {
	table []categoryKeywords
}

// NewCategoryFilter builds a filter from table; a nil table uses
// DefaultKeywords.
func NewCategoryFilter(table map[corpus.Category][]string) *CategoryFilter {
	if table == nil {
		table = DefaultKeywords
	}
	f := &CategoryFilter{}
	fold := cases.Fold()
	for _, cat := range corpus.Categories {
		kws, ok := table[cat]
		if !ok {
			continue
		}
		folded := make([]string, 0, len(kws))
		for _, k := range kws {
			if k = strings.TrimSpace(fold.String(k)); k != "" {
				folded = append(folded, k)
			}
		}
		f.table = append(f.table, categoryKeywords{cat: cat, keywords: folded})
	}
	return f
}

// FilterFromConfig builds a filter from the config "categories" map
// (label -> keywords). Labels are parsed like dataset categories; an empty
// map keeps the defaults.
func FilterFromConfig(m map[string][]string) *CategoryFilter {
	if len(m) == 0 {
		return NewCategoryFilter(nil)
	}
	table := map[corpus.Category][]string{}
	for label, kws := range m {
		cat := corpus.ParseCategory(label)
		table[cat] = append(table[cat], kws...)
	}
	return NewCategoryFilter(table)
}

// Match returns the categories whose keywords occur in query, in display
// order.
func (f *CategoryFilter) Match(query string) []corpus.Category {
	// cases.Caser is stateful; use a fresh one per call.
	q := cases.Fold().String(query)
	var out []corpus.Category
	for _, ck := range f.table {
		for _, k := range ck.keywords {
			if strings.Contains(q, k) {
				out = append(out, ck.cat)
				break
			}
		}
	}
	return out
}

// Candidates returns the ids of records in the matched categories, in corpus
// order, or every id when nothing matched.
func (f *CategoryFilter) Candidates(s *Store, query string) ([]int, []corpus.Category) {
	matched := f.Match(query)
	if len(matched) == 0 {
		return s.AllIDs(), nil
	}
	want := make(map[corpus.Category]bool, len(matched))
	for _, c := range matched {
		want[c] = true
	}
	ids := make([]int, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		if want[s.Record(i).Category] {
			ids = append(ids, i)
		}
	}
	return ids, matched
}

// Keywords returns a copy of the active table, for diagnostics.
func (f *CategoryFilter) Keywords() map[corpus.Category][]string {
	out := make(map[corpus.Category][]string, len(f.table))
	for _, ck := range f.table {
		kws := append([]string(nil), ck.keywords...)
		sort.Strings(kws)
		out[ck.cat] = kws
	}
	return out
}
