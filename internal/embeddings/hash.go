package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// hashProvider is a deterministic feature-hashing encoder. It needs no model
// or network and is the default so nlcmd works offline.
//
// Features are case-folded word tokens plus character trigrams of each padded
// token. Each feature is hashed to a bucket with a sign bit; the result is
// L2-normalized.
type hashProvider struct {
	dim int
}

// NewHash returns a feature-hashing provider of the given dimension.
func NewHash(dim int) Provider {
	if dim <= 0 {
		dim = defaultHashDim
	}
	return &hashProvider{dim: dim}
}

func (p *hashProvider) ModelID() string {
	return "hash:v1:" + strconv.Itoa(p.dim)
}

func (p *hashProvider) Dim() int {
	return p.dim
}

func (p *hashProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vec := make([]float32, p.dim)
	for _, tok := range hashTokens(text) {
		p.add(vec, "w:"+tok, 1.0)
		padded := []rune("^" + tok + "$")
		for i := 0; i+3 <= len(padded); i++ {
			p.add(vec, "c:"+string(padded[i:i+3]), 0.5)
		}
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec, nil
	}
	n := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= n
	}
	return vec, nil
}

func (p *hashProvider) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(p.dim))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}

// hashTokens folds case and splits on anything that is not a letter, digit or
// one of the characters that commonly appear inside shell words.
func hashTokens(text string) []string {
	folded := cases.Fold().String(text)
	return strings.FieldsFunc(folded, func(r rune) bool {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
		switch r {
		case '-', '_', '.', '/':
			return false
		}
		return true
	})
}
