package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if cfg.Embedding.Provider != "remote" {
		t.Errorf("expected remote, got %s", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("expected 1536, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Chunking.MinChunkSize != 200 || cfg.Chunking.MaxChunkSize != 1500 {
		t.Errorf("unexpected chunk size defaults: %+v", cfg.Chunking)
	}
	if !cfg.Chunking.FallbackToLegacyOnError {
		t.Error("fallback should default to enabled")
	}
	if cfg.Store.Driver != "sqlite" {
		t.Errorf("expected sqlite, got %s", cfg.Store.Driver)
	}
	if cfg.Retrieval.ContextWindow != 1 {
		t.Errorf("expected context window 1, got %d", cfg.Retrieval.ContextWindow)
	}
}

func TestLoadFromTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.toml")
	os.WriteFile(path, []byte(`
[embedding]
provider = "local"
local_url = "http://gpu-box:8080"
dimensions = 384

[chunking]
similarity_threshold = 0.8
transition_markers = ["however", "meanwhile"]

[store]
driver = "memory"
`), 0644)

	cfg := Load(path)
	if cfg.Embedding.Provider != "local" {
		t.Errorf("expected local, got %s", cfg.Embedding.Provider)
	}
	if cfg.Embedding.LocalURL != "http://gpu-box:8080" {
		t.Errorf("expected gpu-box URL, got %s", cfg.Embedding.LocalURL)
	}
	if cfg.Chunking.SimilarityThreshold != 0.8 {
		t.Errorf("expected 0.8, got %f", cfg.Chunking.SimilarityThreshold)
	}
	if len(cfg.Chunking.TransitionMarkers) != 2 {
		t.Errorf("expected 2 markers, got %v", cfg.Chunking.TransitionMarkers)
	}
	if cfg.Store.Driver != "memory" {
		t.Errorf("expected memory, got %s", cfg.Store.Driver)
	}
	// Defaults preserved
	if cfg.Chunking.MinChunkSize != 200 {
		t.Errorf("default should be preserved, got %d", cfg.Chunking.MinChunkSize)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("CLEAVE_EMBEDDING_API_KEY", "env-key")
	t.Setenv("CLEAVE_STORE_DRIVER", "postgres")
	t.Setenv("CLEAVE_STORE_DSN", "postgres://localhost/cleave")

	cfg := Load("/nonexistent/path.toml")
	if cfg.Embedding.APIKey != "env-key" {
		t.Errorf("expected env-key, got %s", cfg.Embedding.APIKey)
	}
	if cfg.Store.Driver != "postgres" {
		t.Errorf("expected postgres, got %s", cfg.Store.Driver)
	}
	if cfg.Store.DSN != "postgres://localhost/cleave" {
		t.Errorf("expected DSN override, got %s", cfg.Store.DSN)
	}
}

func TestLocalURLFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.toml")
	os.WriteFile(path, []byte(`
[embedding]
provider = "local"
local_url = ""
`), 0644)

	cfg := Load(path)
	if cfg.Embedding.LocalURL != "http://localhost:8080" {
		t.Errorf("expected localhost fallback, got %s", cfg.Embedding.LocalURL)
	}
}
