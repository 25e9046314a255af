package index

import "github.com/kamusis/nlcmd/internal/corpus"

// Version is the on-disk layout version written by this package.
const Version = 1

const (
	manifestFile       = "index_manifest.json"
	defaultRecordsFile = "records.jsonl"
	defaultVectorFile  = "vectors.f32"
)

// Manifest describes a command index and how to interpret it.
type Manifest struct {
	IndexVersion int    `json:"index_version"`
	CreatedAt    string `json:"created_at"`
	ModelID      string `json:"model_id"`
	Dim          int    `json:"dim"`
	Normalize    bool   `json:"normalize"`
	DatasetHash  string `json:"dataset_hash"`
	RecordsFile  string `json:"records_file"`
	VectorFile   string `json:"vector_file"`
}

// Entry represents one command row in records.jsonl.
type Entry struct {
	ID          int             `json:"id"`
	Command     string          `json:"command"`
	Category    corpus.Category `json:"category"`
	Description string          `json:"description"`
	TextHash    string          `json:"text_hash"`
}

// Index is a loaded command index. Vectors holds len(Entries)*Manifest.Dim
// floats, row-major.
type Index struct {
	Manifest Manifest
	Entries  []Entry
	Vectors  []float32
}

// Vector returns the embedding of entry i. The slice aliases Vectors.
func (idx *Index) Vector(i int) []float32 {
	d := idx.Manifest.Dim
	return idx.Vectors[i*d : (i+1)*d : (i+1)*d]
}

// Records converts the entries back to corpus records, re-parsing base
// commands. IDs are positions in the index.
func (idx *Index) Records() []corpus.Record {
	out := make([]corpus.Record, len(idx.Entries))
	for i, e := range idx.Entries {
		out[i] = corpus.NewRecord(i, e.Command, e.Category, e.Description)
	}
	return out
}

// EntryFromRecord converts a corpus record for index writing.
func EntryFromRecord(r corpus.Record, textHash string) Entry {
	return Entry{
		ID:          r.ID,
		Command:     r.Command,
		Category:    r.Category,
		Description: r.Description,
		TextHash:    textHash,
	}
}
