package index

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/kamusis/nlcmd/internal/corpus"
)

// CanonicalText returns the canonical text used for embeddings generation.
func CanonicalText(r corpus.Record) string {
	return strings.TrimSpace(r.EmbeddingText())
}

// TextHash returns a sha256 hash (hex) of the canonical text.
func TextHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
