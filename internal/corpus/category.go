package corpus

import (
	"fmt"
	"strings"
)

// Category is the coarse grouping of a corpus command.
type Category int

const (
	Other Category = iota
	Navigation
	FileManagement
	Permissions
)

// Categories lists every category in display order.
var Categories = []Category{Navigation, FileManagement, Permissions, Other}

func (c Category) String() string {
	switch c {
	case Navigation:
		return "Navigation"
	case FileManagement:
		return "File Management"
	case Permissions:
		return "Permissions"
	default:
		return "Other"
	}
}

// ParseCategory maps dataset text to a Category. Matching ignores case,
// spaces, dashes and underscores; unknown labels are Other.
func ParseCategory(s string) Category {
	key := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '\t':
			return -1
		}
		return r
	}, strings.ToLower(s))

	switch key {
	case "navigation":
		return Navigation
	case "filemanagement", "files", "file":
		return FileManagement
	case "permissions", "permission":
		return Permissions
	default:
		return Other
	}
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	if c == nil {
		return fmt.Errorf("nil category")
	}
	*c = ParseCategory(string(b))
	return nil
}
