package retrieval

import (
	"sort"

	"github.com/kamusis/nlcmd/internal/corpus/index"
)

// DefaultTopK is used when k <= 0.
const DefaultTopK = 3

// Scored is one ranked candidate.
type Scored struct {
	ID    int
	Score float64
}

// Rank scores candidates against query by cosine similarity and returns the
// k best in descending order. Ties keep corpus order. Candidates scoring
// below minScore are dropped when minScore > 0.
func Rank(s *Store, query []float32, candidates []int, k int, minScore float64) ([]Scored, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	if len(candidates) == 0 {
		return []Scored{}, nil
	}

	qn := index.Norm(query)
	scored := make([]Scored, 0, len(candidates))
	for _, id := range candidates {
		score, err := index.CosineNorm(query, qn, s.Vector(id), s.norms[id])
		if err != nil {
			return nil, err
		}
		if minScore > 0 && score < minScore {
			continue
		}
		scored = append(scored, Scored{ID: id, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}
