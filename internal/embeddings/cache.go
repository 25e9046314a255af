package embeddings

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS embeddings (
	model_id  TEXT    NOT NULL,
	text_hash TEXT    NOT NULL,
	dim       INTEGER NOT NULL,
	vec       BLOB    NOT NULL,
	PRIMARY KEY (model_id, text_hash)
);`

// Cached is a Provider decorator that persists vectors in a sqlite database
// keyed by model id and the sha256 of the input text.
type Cached struct {
	inner Provider
	db    *sql.DB
}

// NewCached opens (or creates) the cache at path and wraps inner.
func NewCached(inner Provider, path string) (*Cached, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache dir: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open embeddings cache %s: %w", path, err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cannot initialize embeddings cache %s: %w", path, err)
	}
	return &Cached{inner: inner, db: db}, nil
}

func (c *Cached) ModelID() string { return c.inner.ModelID() }
func (c *Cached) Dim() int { return c.inner.Dim() }

// Embed returns the cached vector when present and otherwise delegates to the
// wrapped provider and stores the result. Cache read/write failures fall back
// to the wrapped provider.
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	model := c.inner.ModelID()
	key := textKey(text)

	var blob []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT vec FROM embeddings WHERE model_id = ? AND text_hash = ?`, model, key).Scan(&blob)
	if err == nil {
		if v, ok := decodeVec(blob); ok {
			return v, nil
		}
	} else if !errors.Is(err, sql.ErrNoRows) && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	v, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	_, _ = c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO embeddings (model_id, text_hash, dim, vec) VALUES (?, ?, ?, ?)`,
		model, key, len(v), encodeVec(v))
	return v, nil
}

// Close closes the cache database and the wrapped provider when it has one.
func (c *Cached) Close() error {
	err := c.db.Close()
	if cerr := Close(c.inner); err == nil {
		err = cerr
	}
	return err
}

func textKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func encodeVec(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return b
}

func decodeVec(b []byte) ([]float32, bool) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, false
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, true
}
