package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/nlcmd/internal/config"
	"github.com/kamusis/nlcmd/internal/gate"
	"github.com/kamusis/nlcmd/internal/retrieval"
	"github.com/kamusis/nlcmd/internal/sandbox"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("NLCMD_HOME", t.TempDir())
	cfg, err := config.DefaultConfig()
	require.NoError(t, err)
	cfg.Embeddings.Dim = 128
	cfg.Sandbox.Timeout = 2 * time.Second
	return cfg
}

func TestLoad_WithoutIndex(t *testing.T) {
	cfg := testConfig(t)
	_, err := Load(cfg, zerolog.Nop())
	assert.ErrorIs(t, err, ErrNoIndex)
}

func TestBuildIndexThenLoad(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	idx, stats, err := BuildIndex(ctx, cfg, false, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, len(idx.Entries), stats.Embedded)
	assert.Equal(t, "hash:v1:128", idx.Manifest.ModelID)

	a, err := Load(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	ex, err := a.Suggest(ctx, retrieval.Query{Text: "copy notes.txt to /tmp"})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(ex.Results), cfg.TopK)
	assert.Equal(t, gate.ModeExact, a.Gate.Mode())
}

func TestLoad_ModelMismatch(t *testing.T) {
	cfg := testConfig(t)
	_, _, err := BuildIndex(context.Background(), cfg, false, nil, zerolog.Nop())
	require.NoError(t, err)

	cfg.Embeddings.Dim = 64
	_, err = Load(cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model mismatch")
}

func TestLoad_CustomDataset(t *testing.T) {
	cfg := testConfig(t)
	ds := filepath.Join(t.TempDir(), "cmds.csv")
	require.NoError(t, os.WriteFile(ds, []byte("command,category,description\necho hi,Other,Say hi.\n"), 0o644))
	cfg.Dataset = ds

	_, _, err := BuildIndex(context.Background(), cfg, false, nil, zerolog.Nop())
	require.NoError(t, err)
	a, err := Load(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	out, err := a.Run(context.Background(), "echo hi")
	require.NoError(t, err)
	assert.Equal(t, sandbox.StatusOK, out.Status)
	assert.Equal(t, "hi\n", out.Stdout)

	out, err = a.Run(context.Background(), "echo hi; id")
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, gate.ErrCommandNotAllowed))
}

func TestLoad_EmptyDataset(t *testing.T) {
	cfg := testConfig(t)
	ds := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(ds, []byte("command,category,description\n"), 0o644))
	cfg.Dataset = ds

	idx, stats, err := BuildIndex(context.Background(), cfg, false, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, idx.Entries)
	assert.Equal(t, 0, stats.Embedded)
	assert.Equal(t, 128, idx.Manifest.Dim)

	a, err := Load(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	ex, err := a.Suggest(context.Background(), retrieval.Query{Text: "list files"})
	require.NoError(t, err)
	require.NotNil(t, ex.Results)
	assert.Empty(t, ex.Results)

	_, err = a.Run(context.Background(), "ls")
	assert.ErrorIs(t, err, gate.ErrCommandNotAllowed)
}

func TestLive_Swap(t *testing.T) {
	a1 := &App{}
	a2 := &App{}
	l := NewLive(a1)
	assert.Same(t, a1, l.Current())
	assert.Same(t, a1, l.Swap(a2))
	assert.Same(t, a2, l.Current())
}
