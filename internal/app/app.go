// Package app wires the retrieval pipeline, the allow-list and the sandbox
// into one immutable value shared by every front end.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/kamusis/nlcmd/internal/config"
	"github.com/kamusis/nlcmd/internal/corpus"
	"github.com/kamusis/nlcmd/internal/corpus/index"
	"github.com/kamusis/nlcmd/internal/embeddings"
	"github.com/kamusis/nlcmd/internal/gate"
	"github.com/kamusis/nlcmd/internal/logging"
	"github.com/kamusis/nlcmd/internal/retrieval"
	"github.com/kamusis/nlcmd/internal/sandbox"
)

// ErrNoIndex is returned when the configured index directory has no index.
var ErrNoIndex = errors.New("no command index found")

// App is one loaded snapshot of the corpus plus the services built on it.
// It is never mutated; reloads build a new App.
type App struct {
	Retrieval *retrieval.Service
	Gate      *gate.AllowList
	Runner    *sandbox.Runner
	Manifest  index.Manifest

	prov embeddings.Provider
	log  zerolog.Logger
}

// New assembles an App from its parts. prov may be nil when the caller owns
// the provider's lifetime.
func New(svc *retrieval.Service, allow *gate.AllowList, runner *sandbox.Runner, prov embeddings.Provider, log zerolog.Logger) *App {
	return &App{
		Retrieval: svc,
		Gate:      allow,
		Runner:    runner,
		prov:      prov,
		log:       logging.Component(log, "app"),
	}
}

// Load builds an App from configuration: it opens the embeddings provider,
// loads the index, and checks that both use the same model.
func Load(cfg *config.Config, log zerolog.Logger) (*App, error) {
	prov, err := OpenProvider(cfg)
	if err != nil {
		return nil, err
	}
	a, err := loadWith(cfg, prov, log)
	if err != nil {
		_ = embeddings.Close(prov)
		return nil, err
	}
	return a, nil
}

func loadWith(cfg *config.Config, prov embeddings.Provider, log zerolog.Logger) (*App, error) {
	idx, err := index.Load(cfg.IndexDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w in %s (run 'nlcmd index' first)", ErrNoIndex, cfg.IndexDir)
		}
		return nil, fmt.Errorf("cannot load index: %w", err)
	}
	if prov.ModelID() != idx.Manifest.ModelID {
		return nil, fmt.Errorf("embeddings model mismatch: index=%s provider=%s (rebuild with 'nlcmd index --force')",
			idx.Manifest.ModelID, prov.ModelID())
	}

	store, err := retrieval.FromIndex(idx)
	if err != nil {
		return nil, fmt.Errorf("invalid index in %s: %w", cfg.IndexDir, err)
	}
	mode, err := gate.ParseMode(cfg.Gate.Mode)
	if err != nil {
		return nil, err
	}

	svc := retrieval.NewService(
		store,
		retrieval.NewEncoder(prov, store.Dim(), idx.Manifest.Normalize),
		retrieval.FilterFromConfig(cfg.Categories),
		retrieval.Options{TopK: cfg.TopK, MinScore: cfg.MinScore},
		log,
	)
	runner := sandbox.New(sandbox.Options{
		Shell:          cfg.Sandbox.Shell,
		Timeout:        cfg.Sandbox.Timeout,
		MaxOutputBytes: cfg.Sandbox.MaxOutputBytes,
	}, log)

	a := New(svc, gate.New(store.Records(), mode), runner, prov, log)
	a.Manifest = idx.Manifest
	a.log.Info().
		Str("index", cfg.IndexDir).
		Str("model", idx.Manifest.ModelID).
		Int("records", store.Len()).
		Str("gate", string(mode)).
		Msg("corpus loaded")
	return a, nil
}

// OpenProvider resolves and constructs the configured embeddings provider.
func OpenProvider(cfg *config.Config) (embeddings.Provider, error) {
	ec, err := embeddings.LoadConfig(cfg)
	if err != nil {
		return nil, err
	}
	return embeddings.NewFromConfig(ec)
}

// Suggest ranks corpus commands for q.
func (a *App) Suggest(ctx context.Context, q retrieval.Query) (*retrieval.Explanation, error) {
	return a.Retrieval.Explain(ctx, q)
}

// Run checks cmd against the allow-list and executes it. A rejected command
// returns a nil Outcome and an error wrapping gate.ErrCommandNotAllowed.
func (a *App) Run(ctx context.Context, cmd string) (*sandbox.Outcome, error) {
	if err := a.Gate.Check(cmd); err != nil {
		a.log.Warn().Str("command", cmd).Msg("command rejected by allow-list")
		return nil, err
	}
	return a.Runner.Run(ctx, cmd)
}

// Close releases the embeddings provider.
func (a *App) Close() error {
	if a.prov == nil {
		return nil
	}
	return embeddings.Close(a.prov)
}

// BuildIndex embeds the configured dataset and installs the index in
// cfg.IndexDir. progress may be nil.
func BuildIndex(ctx context.Context, cfg *config.Config, force bool, progress io.Writer, log zerolog.Logger) (*index.Index, index.BuildStats, error) {
	recs, err := corpus.Resolve(cfg.Dataset)
	if err != nil {
		return nil, index.BuildStats{}, err
	}
	prov, err := OpenProvider(cfg)
	if err != nil {
		return nil, index.BuildStats{}, err
	}
	defer embeddings.Close(prov)

	log.Info().Str("model", prov.ModelID()).Int("records", len(recs)).Msg("building index")
	return index.Rebuild(ctx, prov, recs, index.RebuildOptions{
		IndexDir:  cfg.IndexDir,
		Force:     force,
		Normalize: true,
		Progress:  progress,
	})
}

// Live publishes the current App to concurrent readers. Swap replaces the
// snapshot without disturbing requests that already hold the old one.
type Live struct {
	p atomic.Pointer[App]
}

// NewLive returns a holder publishing a.
func NewLive(a *App) *Live {
	l := &Live{}
	l.p.Store(a)
	return l
}

// Current returns the published App.
func (l *Live) Current() *App { return l.p.Load() }

// Swap publishes a and returns the previous App.
func (l *Live) Swap(a *App) *App { return l.p.Swap(a) }
