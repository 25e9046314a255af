package corpus

import "strings"

// Record is one corpus command. Records are immutable once loaded and
// addressed by ID, their position in the corpus.
type Record struct {
	ID          int      `json:"id"`
	Command     string   `json:"command"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
	Base        string   `json:"base"`
}

// templateSep separates a command from an inline description in dataset rows
// such as "ls -a : List all files".
const templateSep = " : "

// SplitTemplate cuts s at the first " : ". The command part is returned
// unmodified; the description part is trimmed.
func SplitTemplate(s string) (command, description string) {
	cmd, desc, found := strings.Cut(s, templateSep)
	if !found {
		return s, ""
	}
	return cmd, strings.TrimSpace(desc)
}

// ParseBase returns the first whitespace-separated token of command.
func ParseBase(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// NewRecord builds a record and parses its base command.
func NewRecord(id int, command string, cat Category, description string) Record {
	return Record{
		ID:          id,
		Command:     command,
		Category:    cat,
		Description: description,
		Base:        ParseBase(command),
	}
}

// EmbeddingText is the text embedded for r when building an index: the
// description, or the command when the record has none.
func (r Record) EmbeddingText() string {
	if strings.TrimSpace(r.Description) == "" {
		return r.Command
	}
	return r.Description
}
