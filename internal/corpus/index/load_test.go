package index

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kamusis/nlcmd/internal/corpus"
)

func writeFixture(t *testing.T, dir string, m Manifest, entries []Entry, vectors []float32) {
	t.Helper()
	mb, _ := json.Marshal(m)
	if err := os.WriteFile(filepath.Join(dir, "index_manifest.json"), mb, 0o644); err != nil {
		t.Fatal(err)
	}

	var lines []byte
	for _, e := range entries {
		b, _ := json.Marshal(e)
		lines = append(lines, b...)
		lines = append(lines, '\n')
	}
	if err := os.WriteFile(filepath.Join(dir, "records.jsonl"), lines, 0o644); err != nil {
		t.Fatal(err)
	}

	vecFile, err := os.Create(filepath.Join(dir, "vectors.f32"))
	if err != nil {
		t.Fatal(err)
	}
	if err := binary.Write(vecFile, binary.LittleEndian, vectors); err != nil {
		_ = vecFile.Close()
		t.Fatal(err)
	}
	_ = vecFile.Close()
}

func TestLoad_IndexHappyPath(t *testing.T) {
	dir := t.TempDir()
	m := Manifest{
		IndexVersion: 1,
		CreatedAt:    "2026-01-01T00:00:00Z",
		ModelID:      "hash:v1:2",
		Dim:          2,
		Normalize:    true,
		RecordsFile:  "records.jsonl",
		VectorFile:   "vectors.f32",
	}
	entries := []Entry{
		{ID: 0, Command: "pwd", Category: corpus.Navigation, Description: "Print the working directory."},
		{ID: 1, Command: "mkdir new_folder", Category: corpus.FileManagement, Description: "Create a folder."},
	}
	writeFixture(t, dir, m, entries, []float32{1, 0, 0, 1})

	idx, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if idx.Manifest.Dim != 2 {
		t.Fatalf("dim mismatch")
	}
	if len(idx.Entries) != 2 {
		t.Fatalf("entries mismatch")
	}
	if got := idx.Vector(1); got[0] != 0 || got[1] != 1 {
		t.Fatalf("vector 1 mismatch: %v", got)
	}

	recs := idx.Records()
	if recs[1].Base != "mkdir" || recs[1].Category != corpus.FileManagement {
		t.Fatalf("unexpected record: %+v", recs[1])
	}
}

func TestLoad_VectorSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	m := Manifest{IndexVersion: 1, ModelID: "m", Dim: 3}
	writeFixture(t, dir, m, []Entry{{ID: 0, Command: "ls"}}, []float32{1, 0})

	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "size mismatch") {
		t.Fatalf("expected size mismatch error, got %v", err)
	}
}

func TestLoad_RejectsNewerVersion(t *testing.T) {
	dir := t.TempDir()
	m := Manifest{IndexVersion: Version + 1, ModelID: "m", Dim: 1}
	writeFixture(t, dir, m, []Entry{{ID: 0, Command: "ls"}}, []float32{1})

	if _, err := Load(dir); err == nil {
		t.Fatalf("expected version error")
	}
}

func TestLoad_MissingDir(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error for missing index")
	}
}
