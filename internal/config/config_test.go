package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NLCMD_HOME", dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TopK != 3 {
		t.Fatalf("top_k default: got %d", cfg.TopK)
	}
	if cfg.Sandbox.Timeout != 5*time.Second {
		t.Fatalf("sandbox timeout default: got %v", cfg.Sandbox.Timeout)
	}
	if cfg.Gate.Mode != "exact" {
		t.Fatalf("gate mode default: got %q", cfg.Gate.Mode)
	}
	if cfg.IndexDir != filepath.Join(dir, "index") {
		t.Fatalf("index dir default: got %q", cfg.IndexDir)
	}
	if cfg.Embeddings.Provider != "hash" {
		t.Fatalf("provider default: got %q", cfg.Embeddings.Provider)
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NLCMD_HOME", dir)

	body := "top_k: 5\nsandbox:\n  timeout: 2s\ncategories:\n  Navigation: [goto]\n"
	if err := os.WriteFile(filepath.Join(dir, "nlcmd.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NLCMD_GATE_MODE", "filled")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TopK != 5 {
		t.Fatalf("top_k: got %d", cfg.TopK)
	}
	if cfg.Sandbox.Timeout != 2*time.Second {
		t.Fatalf("timeout: got %v", cfg.Sandbox.Timeout)
	}
	if cfg.Gate.Mode != "filled" {
		t.Fatalf("env override not applied: %q", cfg.Gate.Mode)
	}
	if got := cfg.Categories["navigation"]; len(got) != 1 || got[0] != "goto" {
		t.Fatalf("categories: got %v", cfg.Categories)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NLCMD_HOME", dir)

	if err := os.WriteFile(filepath.Join(dir, "nlcmd.yaml"), []byte("top_k: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid YAML")
	}
}

func TestSave_RoundTripsThroughLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NLCMD_HOME", dir)

	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatal(err)
	}
	cfg.TopK = 4
	cfg.Sandbox.Timeout = 1500 * time.Millisecond
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.TopK != 4 || got.Sandbox.Timeout != 1500*time.Millisecond {
		t.Fatalf("unexpected config after reload: %+v", got)
	}
}
