package index

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// Load reads the index in dir. The manifest is read first and decides the
// names of the other two files; a missing manifest wraps os.ErrNotExist.
// An index of an empty corpus loads with no entries.
func Load(dir string) (*Index, error) {
	m, err := readManifest(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, err
	}
	entries, err := readEntries(filepath.Join(dir, m.RecordsFile))
	if err != nil {
		return nil, err
	}
	vectors, err := readVectors(filepath.Join(dir, m.VectorFile), len(entries), m.Dim)
	if err != nil {
		return nil, err
	}
	return &Index{Manifest: m, Entries: entries, Vectors: vectors}, nil
}

func readManifest(path string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("cannot read manifest %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("invalid manifest JSON %s: %w", path, err)
	}
	switch {
	case m.IndexVersion > Version:
		return m, fmt.Errorf("unsupported index version %d (max %d); rebuild with 'nlcmd index --force'", m.IndexVersion, Version)
	case m.Dim <= 0:
		return m, fmt.Errorf("invalid dim in manifest: %d", m.Dim)
	}
	if m.RecordsFile == "" {
		m.RecordsFile = defaultRecordsFile
	}
	if m.VectorFile == "" {
		m.VectorFile = defaultVectorFile
	}
	return m, nil
}

// readEntries decodes one JSON object per line; blank lines are skipped by
// the decoder.
func readEntries(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open records file %s: %w", path, err)
	}
	defer f.Close()

	var out []Entry
	dec := json.NewDecoder(f)
	for {
		var e Entry
		err := dec.Decode(&e)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("invalid records file %s (record %d): %w", path, len(out), err)
		}
		out = append(out, e)
	}
}

func readVectors(path string, n, dim int) ([]float32, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read vector file %s: %w", path, err)
	}
	want := n * dim * 4
	if len(b) != want {
		return nil, fmt.Errorf("vector file size mismatch: got %d want %d (records=%d dim=%d)", len(b), want, n, dim)
	}
	out := make([]float32, n*dim)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out, nil
}
