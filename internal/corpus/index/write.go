package index

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Write writes index artifacts to dir.
func Write(dir string, manifest Manifest, entries []Entry, vectors []float32) error {
	if manifest.Dim <= 0 {
		return fmt.Errorf("invalid dim: %d", manifest.Dim)
	}
	if len(vectors) != len(entries)*manifest.Dim {
		return fmt.Errorf("vector length mismatch: got %d want %d", len(vectors), len(entries)*manifest.Dim)
	}
	if manifest.IndexVersion == 0 {
		manifest.IndexVersion = Version
	}
	if manifest.VectorFile == "" {
		manifest.VectorFile = defaultVectorFile
	}
	if manifest.RecordsFile == "" {
		manifest.RecordsFile = defaultRecordsFile
	}
	if manifest.CreatedAt == "" {
		manifest.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create index dir %s: %w", dir, err)
	}

	if err := writeRecords(filepath.Join(dir, manifest.RecordsFile), entries); err != nil {
		return err
	}

	vf, err := os.Create(filepath.Join(dir, manifest.VectorFile))
	if err != nil {
		return fmt.Errorf("cannot create vectors file: %w", err)
	}
	bw := bufio.NewWriter(vf)
	if len(vectors) > 0 {
		if err := binary.Write(bw, binary.LittleEndian, vectors); err != nil {
			_ = vf.Close()
			return fmt.Errorf("cannot write vectors: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		_ = vf.Close()
		return fmt.Errorf("cannot write vectors: %w", err)
	}
	if err := vf.Close(); err != nil {
		return err
	}

	// Manifest last: a directory without one never loads.
	mb, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), mb, 0o644); err != nil {
		return fmt.Errorf("cannot write manifest: %w", err)
	}
	return nil
}

func writeRecords(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create records file: %w", err)
	}
	bw := bufio.NewWriter(f)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			_ = f.Close()
			return fmt.Errorf("cannot write record %d: %w", e.ID, err)
		}
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
