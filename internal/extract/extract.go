// Package extract pulls arguments out of a natural-language request and fills
// them into corpus command templates.
package extract

import "regexp"

var (
	folderRe   = regexp.MustCompile(`(?i)(?:folder|directory) (?:called|named) (\w+)`)
	copyRe     = regexp.MustCompile(`(?i)copy (\S+) to (\S+)`)
	moveRe     = regexp.MustCompile(`(?i)(?:rename|move) (\S+) to (\S+)`)
	// Single quotes count only at word edges, so contractions such as
	// "what's" or "don't" are not read as quoted literals.
	quotedRe   = regexp.MustCompile(`"(.+?)"|(?:^|[\s(\[])'([^'\s][^']*?)'(?:$|[\s.,;:!?)\]])`)
	filenameRe = regexp.MustCompile(`\b[\w\-.]+\.(?:txt|sh|log|conf|bin|csv|gz|img|exe)\b`)
)

// Placeholders are literal file names used in corpus templates that are
// replaced with a file named in the request.
var Placeholders = []string{"file.txt", "config.conf", "script.sh", "error.log", "access.log"}

// Base commands whose templates accept structured fills.
const (
	BaseMkdir = "mkdir"
	BaseCopy  = "cp"
	BaseMove  = "mv"
)

// Entities holds the arguments found in one request. Empty fields were not
// found.
type Entities struct {
	FolderName string `json:"folder_name,omitempty"`
	CopySrc    string `json:"copy_src,omitempty"`
	CopyDst    string `json:"copy_dst,omitempty"`
	MoveSrc    string `json:"move_src,omitempty"`
	MoveDst    string `json:"move_dst,omitempty"`
	Quoted     string `json:"quoted,omitempty"`
	Filename   string `json:"filename,omitempty"`
}

// Extract applies every pattern to query independently.
func Extract(query string) Entities {
	var e Entities
	if m := folderRe.FindStringSubmatch(query); m != nil {
		e.FolderName = m[1]
	}
	if m := copyRe.FindStringSubmatch(query); m != nil {
		e.CopySrc, e.CopyDst = m[1], m[2]
	}
	if m := moveRe.FindStringSubmatch(query); m != nil {
		e.MoveSrc, e.MoveDst = m[1], m[2]
	}
	if m := quotedRe.FindStringSubmatch(query); m != nil {
		if m[1] != "" {
			e.Quoted = m[1]
		} else {
			e.Quoted = m[2]
		}
	}
	e.Filename = filenameRe.FindString(query)
	return e
}

// IsZero reports whether nothing was extracted.
func (e Entities) IsZero() bool {
	return e == Entities{}
}

// FileArg is the file the request refers to: the first quoted literal,
// otherwise the first token with a known file extension.
func (e Entities) FileArg() string {
	if e.Quoted != "" {
		return e.Quoted
	}
	return e.Filename
}
