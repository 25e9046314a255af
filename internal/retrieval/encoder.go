package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/kamusis/nlcmd/internal/corpus/index"
	"github.com/kamusis/nlcmd/internal/embeddings"
)

// EncodingError reports that a query could not be turned into a vector of
// the corpus dimension.
type EncodingError struct {
	Query string
	Err   error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("cannot encode query %q: %v", e.Query, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// Encoder turns queries into vectors comparable with a Store.
type Encoder struct {
	prov      embeddings.Provider
	dim       int
	normalize bool
}

// NewEncoder wraps prov for a corpus of dimension dim.
func NewEncoder(prov embeddings.Provider, dim int, normalize bool) *Encoder {
	return &Encoder{prov: prov, dim: dim, normalize: normalize}
}

// ModelID is the wrapped provider's model id.
func (e *Encoder) ModelID() string { return e.prov.ModelID() }

// Encode embeds query. A blank query yields the zero vector, which scores 0
// against every record.
func (e *Encoder) Encode(ctx context.Context, query string) ([]float32, error) {
	if strings.TrimSpace(query) == "" {
		return make([]float32, e.dim), nil
	}
	v, err := e.prov.Embed(ctx, query)
	if err != nil {
		return nil, &EncodingError{Query: query, Err: err}
	}
	if len(v) != e.dim {
		return nil, &EncodingError{
			Query: query,
			Err:   fmt.Errorf("%w: got %d want %d", index.ErrVectorLengthMismatch, len(v), e.dim),
		}
	}
	if e.normalize {
		v = index.NormalizeL2(v)
	}
	return v, nil
}
