package extract

import (
	"regexp"

	"github.com/kamusis/nlcmd/internal/corpus"
)

// Filled is a template after entity substitution.
type Filled struct {
	Command     string
	Description string
	// Filled is false when the template passed through unchanged.
	Filled bool
}

var placeholderRes = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(Placeholders))
	for i, p := range Placeholders {
		out[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(p) + `\b`)
	}
	return out
}()

// Fill substitutes entities into rec. Structured fills are tried in the
// order mkdir, cp, mv and only apply when the record's base command matches.
// Otherwise a file named in the request replaces template placeholders.
func Fill(rec corpus.Record, e Entities) Filled {
	switch {
	case rec.Base == BaseMkdir && e.FolderName != "":
		return Filled{
			Command:     "mkdir " + e.FolderName,
			Description: "Creates a directory named " + e.FolderName + ".",
			Filled:      true,
		}
	case rec.Base == BaseCopy && e.CopySrc != "":
		return Filled{
			Command:     "cp " + e.CopySrc + " " + e.CopyDst,
			Description: "Copies " + e.CopySrc + " to " + e.CopyDst + ".",
			Filled:      true,
		}
	case rec.Base == BaseMove && e.MoveSrc != "":
		return Filled{
			Command:     "mv " + e.MoveSrc + " " + e.MoveDst,
			Description: "Renames or moves " + e.MoveSrc + " to " + e.MoveDst + ".",
			Filled:      true,
		}
	}

	out := Filled{Command: rec.Command, Description: rec.Description}
	name := e.FileArg()
	if name == "" {
		return out
	}
	for _, re := range placeholderRes {
		if !re.MatchString(out.Command) {
			continue
		}
		out.Command = re.ReplaceAllLiteralString(out.Command, name)
		out.Description = re.ReplaceAllLiteralString(out.Description, name)
	}
	out.Filled = out.Command != rec.Command
	return out
}

// Apply extracts entities from query and fills rec.
func Apply(query string, rec corpus.Record) (Filled, Entities) {
	e := Extract(query)
	return Fill(rec, e), e
}
