package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Embedding EmbeddingConfig `toml:"embedding"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Store     StoreConfig     `toml:"store"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Observer  ObserverConfig  `toml:"observer"`
}

type EmbeddingConfig struct {
	// Provider selects the embedding path: "remote" (OpenAI-compatible API)
	// or "local" (text-embeddings-inference server).
	Provider      string `toml:"provider"`
	RemoteModel   string `toml:"remote_model"`
	APIKey        string `toml:"api_key"`
	BaseURL       string `toml:"base_url"`
	LocalURL      string `toml:"local_url"`
	Dimensions    int    `toml:"dimensions"`
	BatchSize     int    `toml:"batch_size"`
	BatchDelayMs  int    `toml:"batch_delay_ms"`
	MaxInputChars int    `toml:"max_input_chars"`
	MaxRetries    int    `toml:"max_retries"`
	RPM           int    `toml:"rpm"`
	TPM           int    `toml:"tpm"`
}

type ChunkingConfig struct {
	MinChunkSize                int      `toml:"min_chunk_size"`
	MaxChunkSize                int      `toml:"max_chunk_size"`
	TargetChunkSize             int      `toml:"target_chunk_size"`
	MinSentencesPerChunk        int      `toml:"min_sentences_per_chunk"`
	MinSentenceLength           int      `toml:"min_sentence_length"`
	SimilarityThreshold         float32  `toml:"similarity_threshold"`
	BoundaryConfidenceThreshold float32  `toml:"boundary_confidence_threshold"`
	LocalWindow                 int      `toml:"local_window"`
	OverlapSentences            int      `toml:"overlap_sentences"`
	OverlapRatio                float64  `toml:"overlap_ratio"`
	EnableDomainOptimization    bool     `toml:"enable_domain_optimization"`
	TransitionPenalty           float32  `toml:"transition_penalty"`
	DataContinuityBonus         float32  `toml:"data_continuity_bonus"`
	TransitionMarkers           []string `toml:"transition_markers"`
	ContinuityMarkers           []string `toml:"continuity_markers"`
	FallbackToLegacyOnError     bool     `toml:"fallback_to_legacy_on_error"`
}

type StoreConfig struct {
	// Driver selects the vector store backend: "memory", "sqlite" or
	// "postgres". Path is the sqlite database file; DSN is the postgres
	// connection string.
	Driver string `toml:"driver"`
	Path   string `toml:"path"`
	DSN    string `toml:"dsn"`
}

type RetrievalConfig struct {
	TopK               int     `toml:"top_k"`
	ContextWindow      int     `toml:"context_window"`
	MaxSiblings        int     `toml:"max_siblings"`
	CompletenessWeight float64 `toml:"completeness_weight"`
}

type ObserverConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default returns a Config with all defaults applied. Chunking defaults
// mirror chunk.DefaultConfig; marker lists are left empty here so the
// chunker's own defaults apply unless the file overrides them.
func Default() Config {
	return Config{
		Embedding: EmbeddingConfig{
			Provider:      "remote",
			RemoteModel:   "text-embedding-3-small",
			BaseURL:       "https://api.openai.com/v1",
			Dimensions:    1536,
			BatchSize:     100,
			MaxInputChars: 8000,
		},
		Chunking: ChunkingConfig{
			MinChunkSize:                200,
			MaxChunkSize:                1500,
			TargetChunkSize:             800,
			MinSentencesPerChunk:        3,
			MinSentenceLength:           5,
			SimilarityThreshold:         0.75,
			BoundaryConfidenceThreshold: 0.6,
			LocalWindow:                 3,
			OverlapSentences:            2,
			OverlapRatio:                0.3,
			EnableDomainOptimization:    true,
			TransitionPenalty:           0.8,
			DataContinuityBonus:         1.15,
			FallbackToLegacyOnError:     true,
		},
		Store: StoreConfig{Driver: "sqlite", Path: "cleave.db"},
		Retrieval: RetrievalConfig{
			TopK:               10,
			ContextWindow:      1,
			MaxSiblings:        4,
			CompletenessWeight: 0.3,
		},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "cleave.toml"
	}

	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	// Env overrides
	if v := os.Getenv("CLEAVE_EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("CLEAVE_EMBEDDING_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("CLEAVE_EMBEDDING_LOCAL_URL"); v != "" {
		cfg.Embedding.LocalURL = v
	}
	if v := os.Getenv("CLEAVE_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("CLEAVE_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("CLEAVE_STORE_DSN"); v != "" {
		cfg.Store.DSN = v
	}
	if os.Getenv("CLEAVE_OBSERVER_ENABLED") == "true" || os.Getenv("CLEAVE_OBSERVER_ENABLED") == "1" {
		cfg.Observer.Enabled = true
	}

	// Fallbacks
	if cfg.Embedding.Provider == "local" && cfg.Embedding.LocalURL == "" {
		cfg.Embedding.LocalURL = "http://localhost:8080"
	}

	return cfg
}
