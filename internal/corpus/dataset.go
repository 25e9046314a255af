package corpus

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed data/commands.csv
var defaultDataset []byte

// ErrMissingCommandColumn is returned when a dataset has no "command" header.
var ErrMissingCommandColumn = errors.New("dataset has no command column")

// LoadDataset parses a CSV dataset with a header row naming at least a
// command column; category and description are optional. Header names are
// case-insensitive and extra columns are ignored. Rows with a blank command
// are skipped. A command cell carrying "cmd : description" is split, and the
// inline description is used when the description column is empty.
func LoadDataset(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingCommandColumn
		}
		return nil, fmt.Errorf("cannot read dataset header: %w", err)
	}

	col := map[string]int{"command": -1, "category": -1, "description": -1}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, ok := col[name]; ok && col[name] < 0 {
			col[name] = i
		}
	}
	if col["command"] < 0 {
		return nil, ErrMissingCommandColumn
	}

	cell := func(row []string, name string) string {
		i := col[name]
		if i < 0 || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var out []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid dataset row %d: %w", line, err)
		}

		cmd, inline := SplitTemplate(strings.TrimSpace(cell(row, "command")))
		if strings.TrimSpace(cmd) == "" {
			continue
		}
		desc := strings.TrimSpace(cell(row, "description"))
		if desc == "" {
			desc = inline
		}
		out = append(out, NewRecord(len(out), cmd, ParseCategory(cell(row, "category")), desc))
	}
	return out, nil
}

// LoadDatasetFile loads a dataset from path.
func LoadDatasetFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open dataset %s: %w", path, err)
	}
	defer f.Close()

	recs, err := LoadDataset(f)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return recs, nil
}

// DefaultDataset returns the built-in starter corpus.
func DefaultDataset() []Record {
	recs, err := LoadDataset(bytes.NewReader(defaultDataset))
	if err != nil {
		panic(fmt.Sprintf("built-in dataset is invalid: %v", err))
	}
	return recs
}

// Resolve loads the dataset at path, or the built-in one when path is empty.
func Resolve(path string) ([]Record, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultDataset(), nil
	}
	return LoadDatasetFile(path)
}

// Hash fingerprints the records (command, category, description) in order.
func Hash(recs []Record) string {
	h := sha256.New()
	for _, r := range recs {
		fmt.Fprintf(h, "%s\x1f%s\x1f%s\x1e", r.Command, r.Category, r.Description)
	}
	return hex.EncodeToString(h.Sum(nil))
}
