// Package retrieval maps a natural-language query to ranked corpus commands.
package retrieval

import (
	"fmt"

	"github.com/kamusis/nlcmd/internal/corpus"
	"github.com/kamusis/nlcmd/internal/corpus/index"
)

// Store is an immutable snapshot of the corpus and its embeddings. It is
// never mutated after construction and may be shared across goroutines.
type Store struct {
	records   []corpus.Record
	vectors   []float32
	norms     []float64
	dim       int
	modelID   string
	normalize bool
}

// NewStore validates that vectors holds one dim-length row per record.
func NewStore(recs []corpus.Record, vectors []float32, dim int, modelID string, normalize bool) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid embedding dim: %d", dim)
	}
	if len(vectors) != len(recs)*dim {
		return nil, fmt.Errorf("store has %d floats for %d records of dim %d", len(vectors), len(recs), dim)
	}
	s := &Store{
		records:   make([]corpus.Record, len(recs)),
		vectors:   make([]float32, len(vectors)),
		norms:     make([]float64, len(recs)),
		dim:       dim,
		modelID:   modelID,
		normalize: normalize,
	}
	copy(s.vectors, vectors)
	for i, r := range recs {
		r.ID = i
		s.records[i] = r
		s.norms[i] = index.Norm(s.Vector(i))
	}
	return s, nil
}

// FromIndex builds a store from a loaded index.
func FromIndex(idx *index.Index) (*Store, error) {
	if idx == nil {
		return nil, fmt.Errorf("index is nil")
	}
	return NewStore(idx.Records(), idx.Vectors, idx.Manifest.Dim, idx.Manifest.ModelID, idx.Manifest.Normalize)
}

func (s *Store) Len() int { return len(s.records) }
func (s *Store) Dim() int { return s.dim }
func (s *Store) ModelID() string { return s.modelID }
func (s *Store) Normalized() bool { return s.normalize }

// Record returns the record with the given id.
func (s *Store) Record(id int) corpus.Record { return s.records[id] }

// Records returns a copy of all records in corpus order.
func (s *Store) Records() []corpus.Record {
	out := make([]corpus.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Vector returns the embedding of record id. Callers must not modify it.
func (s *Store) Vector(id int) []float32 {
	return s.vectors[id*s.dim : (id+1)*s.dim : (id+1)*s.dim]
}

// AllIDs returns every record id in corpus order.
func (s *Store) AllIDs() []int {
	ids := make([]int, len(s.records))
	for i := range ids {
		ids[i] = i
	}
	return ids
}
