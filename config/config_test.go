package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hubenschmidt/ragserve/core"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Chunking.Size != 500 || cfg.Chunking.Overlap != 50 {
		t.Errorf("chunking defaults = %+v", cfg.Chunking)
	}
	if cfg.Retrieval.TopK != 6 || cfg.Retrieval.MaxContextTokens != 3000 {
		t.Errorf("retrieval defaults = %+v", cfg.Retrieval)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" || cfg.Embedding.Dimension != 1536 {
		t.Errorf("embedding defaults = %+v", cfg.Embedding)
	}
	if cfg.Limits.DailyCostLimit != 5.0 {
		t.Errorf("daily cost limit = %f", cfg.Limits.DailyCostLimit)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "chat:\n  model: gpt-4o\nchunking:\n  size: 200\n  overlap: 20\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Chat.Model != "gpt-4o" {
		t.Errorf("chat model = %s", cfg.Chat.Model)
	}
	if cfg.Chunking.Size != 200 || cfg.Chunking.Overlap != 20 {
		t.Errorf("chunking = %+v", cfg.Chunking)
	}
	// Unset sections keep defaults.
	if cfg.Retrieval.TopK != 6 {
		t.Errorf("top_k = %d", cfg.Retrieval.TopK)
	}
}

func TestLoadRejectsBadChunking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "chunking:\n  size: 100\n  overlap: 100\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadRejectsUnknownVectorStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("vector_store:\n  type: chroma\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}
