package index

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/kamusis/nlcmd/internal/corpus"
	"github.com/kamusis/nlcmd/internal/embeddings"
)

// BuildOptions controls index building.
type BuildOptions struct {
	// OutDir receives the artifacts.
	OutDir string
	// ReuseDir is an existing index whose vectors are reused for unchanged
	// texts embedded by the same model. Optional.
	ReuseDir  string
	Force     bool
	Normalize bool
	// Progress, when set, receives a progress bar.
	Progress io.Writer
}

// BuildStats reports what a build did.
type BuildStats struct {
	Embedded int
	Reused   int
}

// Build embeds recs and writes an index to opts.OutDir.
//
// The build is incremental when opts.ReuseDir holds a loadable index built
// with the same model (unless Force is true). It is the caller's
// responsibility to apply an atomic swap strategy.
func Build(ctx context.Context, prov embeddings.Provider, recs []corpus.Record, opts BuildOptions) (*Index, BuildStats, error) {
	var stats BuildStats
	if opts.OutDir == "" {
		return nil, stats, fmt.Errorf("out dir is required")
	}
	reuse := map[string][]float32{}
	if opts.ReuseDir != "" && !opts.Force {
		if old, err := Load(opts.ReuseDir); err == nil &&
			old.Manifest.ModelID == prov.ModelID() && old.Manifest.Normalize == opts.Normalize {
			for i, e := range old.Entries {
				if e.TextHash != "" {
					reuse[e.TextHash] = old.Vector(i)
				}
			}
		}
	}

	var bar *progressbar.ProgressBar
	if opts.Progress != nil {
		bar = progressbar.NewOptions(len(recs),
			progressbar.OptionSetWriter(opts.Progress),
			progressbar.OptionSetDescription("embedding"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	var (
		entries = make([]Entry, 0, len(recs))
		vectors []float32
		dim     int
	)
	for i, r := range recs {
		text := CanonicalText(r)
		h := TextHash(text)

		emb, ok := reuse[h]
		if ok {
			stats.Reused++
		} else {
			var err error
			emb, err = prov.Embed(ctx, text)
			if err != nil {
				return nil, stats, fmt.Errorf("cannot embed record %d (%s): %w", i, r.Command, err)
			}
			if opts.Normalize {
				emb = NormalizeL2(emb)
			}
			stats.Embedded++
		}

		if dim == 0 {
			dim = len(emb)
		}
		if len(emb) != dim || dim == 0 {
			return nil, stats, fmt.Errorf("embedding dim changed mid-run: got %d want %d", len(emb), dim)
		}

		r.ID = i
		entries = append(entries, EntryFromRecord(r, h))
		vectors = append(vectors, emb...)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	if len(recs) == 0 {
		d, err := probeDim(ctx, prov)
		if err != nil {
			return nil, stats, err
		}
		dim = d
	}

	manifest := Manifest{
		IndexVersion: Version,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
		ModelID:      prov.ModelID(),
		Dim:          dim,
		Normalize:    opts.Normalize,
		DatasetHash:  corpus.Hash(recs),
		RecordsFile:  defaultRecordsFile,
		VectorFile:   defaultVectorFile,
	}
	if err := Write(opts.OutDir, manifest, entries, vectors); err != nil {
		return nil, stats, err
	}
	return &Index{Manifest: manifest, Entries: entries, Vectors: vectors}, stats, nil
}

// probeDim returns the dimension an empty index is recorded with, embedding
// a fixed text when the provider has not seen a response yet.
func probeDim(ctx context.Context, prov embeddings.Provider) (int, error) {
	if d := prov.Dim(); d > 0 {
		return d, nil
	}
	v, err := prov.Embed(ctx, "list files")
	if err != nil {
		return 0, fmt.Errorf("cannot determine embedding dim: %w", err)
	}
	if len(v) == 0 {
		return 0, fmt.Errorf("provider %s returned an empty embedding", prov.ModelID())
	}
	return len(v), nil
}

// RebuildOptions controls Rebuild.
type RebuildOptions struct {
	IndexDir    string
	Force       bool
	Normalize   bool
	Progress    io.Writer
	LockTimeout time.Duration
}

// Rebuild builds a fresh index into a temp dir beside opts.IndexDir and
// swaps it into place while holding the build lock.
func Rebuild(ctx context.Context, prov embeddings.Provider, recs []corpus.Record, opts RebuildOptions) (*Index, BuildStats, error) {
	if opts.IndexDir == "" {
		return nil, BuildStats{}, fmt.Errorf("index dir is required")
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = 30 * time.Second
	}

	unlock, err := AcquireLock(opts.IndexDir, opts.LockTimeout)
	if err != nil {
		return nil, BuildStats{}, err
	}
	defer unlock()

	parent := filepath.Dir(filepath.Clean(opts.IndexDir))
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, BuildStats{}, fmt.Errorf("cannot create %s: %w", parent, err)
	}
	tmpDir, err := os.MkdirTemp(parent, ".index-build-*")
	if err != nil {
		return nil, BuildStats{}, fmt.Errorf("cannot create temp index dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	idx, stats, err := Build(ctx, prov, recs, BuildOptions{
		OutDir:    tmpDir,
		ReuseDir:  opts.IndexDir,
		Force:     opts.Force,
		Normalize: opts.Normalize,
		Progress:  opts.Progress,
	})
	if err != nil {
		return nil, stats, fmt.Errorf("index build failed: %w", err)
	}
	if err := AtomicSwap(tmpDir, opts.IndexDir); err != nil {
		return nil, stats, fmt.Errorf("cannot install index: %w", err)
	}
	return idx, stats, nil
}

// AtomicSwap replaces destDir with srcDir by renaming. The previous
// directory is kept as destDir.bak until the new one is in place.
func AtomicSwap(srcDir, destDir string) error {
	parent := filepath.Dir(destDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}
	backup := destDir + ".bak"
	_ = os.RemoveAll(backup)
	if _, err := os.Stat(destDir); err == nil {
		if err := os.Rename(destDir, backup); err != nil {
			return err
		}
	}
	if err := os.Rename(srcDir, destDir); err != nil {
		if _, stErr := os.Stat(backup); stErr == nil {
			_ = os.Rename(backup, destDir)
		}
		return err
	}
	_ = os.RemoveAll(backup)
	return nil
}
