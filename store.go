package cleave

import "context"

// QueryResult is one ranked hit from a vector-store similarity query.
// Relevance is in [0,1]; higher means more relevant.
type QueryResult struct {
	ID        string         `json:"id"`
	Document  string         `json:"document"`
	Metadata  map[string]any `json:"metadata"`
	Relevance float32        `json:"relevance"`
}

// Record is a stored chunk row fetched by id.
type Record struct {
	ID       string         `json:"id"`
	Document string         `json:"document"`
	Metadata map[string]any `json:"metadata"`
}

// VectorStore abstracts the persistence layer consumed by ingestion and
// retrieval. Implementations compute embeddings themselves on Add and Query;
// cosine-similarity semantics are the only assumption this package makes
// about the underlying engine. Duplicate ids overwrite.
type VectorStore interface {
	// Add upserts one row per chunk. ids, texts and metadatas are parallel.
	Add(ctx context.Context, ids []string, texts []string, metadatas []map[string]any) error

	// Query embeds queryText and returns the topK most similar rows.
	// filter restricts results to rows whose metadata contains every
	// key/value pair; nil means no filtering.
	Query(ctx context.Context, queryText string, topK int, filter map[string]any) ([]QueryResult, error)

	// GetByID fetches rows by id. Missing ids are skipped, not errors.
	GetByID(ctx context.Context, ids []string) ([]Record, error)

	// Count returns the number of stored rows.
	Count(ctx context.Context) (int, error)
}
