// Package postgres implements cleave.VectorStore backed by PostgreSQL with
// pgvector for native cosine similarity search and JSONB containment for
// metadata filters.
//
// Store accepts an externally-owned *pgxpool.Pool so callers control pool
// sizing and lifecycle; Close the pool yourself when done.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	cleave "github.com/nevindra/cleave"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets a structured logger for the store.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithHNSWM sets the HNSW graph degree used when creating the vector index.
// Higher values improve recall at the cost of memory. Default: pgvector's 16.
func WithHNSWM(m int) Option {
	return func(s *Store) { s.hnswM = m }
}

// WithEFConstruction sets the HNSW build-time candidate list size. Higher
// values improve index quality at the cost of slower builds. Default:
// pgvector's 64.
func WithEFConstruction(ef int) Option {
	return func(s *Store) { s.hnswEFConstruction = ef }
}

// Store implements cleave.VectorStore on PostgreSQL + pgvector. Embeddings
// are computed by the configured provider on write; similarity search runs
// in the database via the cosine distance operator.
type Store struct {
	pool   *pgxpool.Pool
	embed  cleave.EmbeddingProvider
	logger *slog.Logger

	hnswM              int
	hnswEFConstruction int
}

var _ cleave.VectorStore = (*Store)(nil)

// New creates a Store using an existing pgxpool.Pool.
func New(pool *pgxpool.Pool, embed cleave.EmbeddingProvider, opts ...Option) *Store {
	s := &Store{pool: pool, embed: embed, logger: cleave.NopLogger()}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) hnswWithClause() string {
	var parts []string
	if s.hnswM > 0 {
		parts = append(parts, fmt.Sprintf("m = %d", s.hnswM))
	}
	if s.hnswEFConstruction > 0 {
		parts = append(parts, fmt.Sprintf("ef_construction = %d", s.hnswEFConstruction))
	}
	if len(parts) == 0 {
		return ""
	}
	return " WITH (" + strings.Join(parts, ", ") + ")"
}

// Init creates the pgvector extension, the chunks table, and its indexes.
// The vector column is typed with the provider's dimension count. Safe to
// call multiple times.
func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			metadata JSONB,
			embedding vector(%d) NOT NULL
		)`, s.embed.Dimensions()),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS chunks_embedding_idx ON chunks USING hnsw (embedding vector_cosine_ops)%s`, s.hnswWithClause()),
		`CREATE INDEX IF NOT EXISTS chunks_metadata_idx ON chunks USING gin(metadata)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: init: %w", err)
		}
	}
	return nil
}

// Add embeds texts and upserts one row per id in a single batch.
func (s *Store) Add(ctx context.Context, ids, texts []string, metadatas []map[string]any) error {
	if len(ids) != len(texts) {
		return fmt.Errorf("postgres: %d ids for %d texts", len(ids), len(texts))
	}
	if len(ids) == 0 {
		return nil
	}

	embeddings, err := s.embed.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("postgres: embed: %w", err)
	}
	if len(embeddings) != len(texts) {
		return fmt.Errorf("postgres: embed returned %d vectors for %d texts", len(embeddings), len(texts))
	}

	batch := &pgx.Batch{}
	for i, id := range ids {
		var metaJSON []byte
		if i < len(metadatas) && len(metadatas[i]) > 0 {
			metaJSON, err = json.Marshal(metadatas[i])
			if err != nil {
				return fmt.Errorf("postgres: marshal metadata %s: %w", id, err)
			}
		}
		batch.Queue(
			`INSERT INTO chunks (id, document, metadata, embedding)
			 VALUES ($1, $2, $3, $4::vector)
			 ON CONFLICT (id) DO UPDATE SET
			   document = EXCLUDED.document,
			   metadata = EXCLUDED.metadata,
			   embedding = EXCLUDED.embedding`,
			id, texts[i], metaJSON, serializeEmbedding(embeddings[i]),
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range ids {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("postgres: insert chunk: %w", err)
		}
	}
	s.logger.Debug("postgres: add chunks ok", "count", len(ids))
	return nil
}

// Query embeds queryText and returns the topK most similar chunks, filtered
// by JSONB containment when a metadata filter is given.
func (s *Store) Query(ctx context.Context, queryText string, topK int, filter map[string]any) ([]cleave.QueryResult, error) {
	embeddings, err := s.embed.Embed(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("postgres: embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("postgres: embed query: no vector returned")
	}
	embStr := serializeEmbedding(embeddings[0])

	query := `SELECT id, document, metadata, 1 - (embedding <=> $1::vector) AS score
		 FROM chunks`
	args := []any{embStr}
	if len(filter) > 0 {
		filterJSON, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("postgres: marshal filter: %w", err)
		}
		query += ` WHERE metadata @> $2::jsonb`
		args = append(args, filterJSON)
	}
	query += fmt.Sprintf(` ORDER BY embedding <=> $1::vector LIMIT %d`, topK)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query: %w", err)
	}
	defer rows.Close()

	var results []cleave.QueryResult
	for rows.Next() {
		var r cleave.QueryResult
		var metaJSON []byte
		var score float64
		if err := rows.Scan(&r.ID, &r.Document, &metaJSON, &score); err != nil {
			return nil, fmt.Errorf("postgres: scan chunk: %w", err)
		}
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &r.Metadata)
		}
		r.Relevance = float32(score)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate chunks: %w", err)
	}
	return results, nil
}

// GetByID returns the records for the given ids. Missing ids are skipped.
func (s *Store) GetByID(ctx context.Context, ids []string) ([]cleave.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, document, metadata FROM chunks WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("postgres: get by id: %w", err)
	}
	defer rows.Close()

	var out []cleave.Record
	for rows.Next() {
		var rec cleave.Record
		var metaJSON []byte
		if err := rows.Scan(&rec.ID, &rec.Document, &metaJSON); err != nil {
			return nil, fmt.Errorf("postgres: scan record: %w", err)
		}
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &rec.Metadata)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate records: %w", err)
	}
	return out, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count: %w", err)
	}
	return n, nil
}

// serializeEmbedding renders a vector in pgvector's text format.
func serializeEmbedding(embedding []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range embedding {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%g", v)
	}
	b.WriteByte(']')
	return b.String()
}
