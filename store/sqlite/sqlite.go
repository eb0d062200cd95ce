// Package sqlite implements cleave.VectorStore using pure-Go SQLite with
// in-process brute-force vector search. Zero CGO required.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	cleave "github.com/nevindra/cleave"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// StoreOption configures a SQLite Store.
type StoreOption func(*Store)

// WithLogger sets a structured logger for the store. When set, the store
// emits debug logs for every operation including timing and row counts.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// Store implements cleave.VectorStore backed by a local SQLite file.
// Embeddings are computed by the configured provider on write, stored as
// JSON text, and searched in-process with brute-force cosine similarity.
type Store struct {
	db     *sql.DB
	embed  cleave.EmbeddingProvider
	logger *slog.Logger
}

var _ cleave.VectorStore = (*Store)(nil)

// New creates a Store using a local SQLite file at dbPath. It opens a single
// shared connection pool with SetMaxOpenConns(1) so all goroutines serialize
// through one connection, eliminating SQLITE_BUSY errors from concurrent
// writers.
func New(dbPath string, embed cleave.EmbeddingProvider, opts ...StoreOption) *Store {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		// sql.Open only fails when the driver is not registered; with the
		// blank import above that never happens.
		panic(fmt.Sprintf("sqlite: open driver: %v", err))
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db, embed: embed, logger: cleave.NopLogger()}
	for _, o := range opts {
		o(s)
	}
	s.logger.Debug("sqlite: store opened", "path", dbPath)
	return s
}

// Init creates the chunks table. Safe to call multiple times.
func (s *Store) Init(ctx context.Context) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		metadata TEXT,
		embedding TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	s.logger.Info("sqlite: init completed", "duration", time.Since(start))
	return nil
}

// Add embeds texts and upserts one row per id inside a single transaction.
func (s *Store) Add(ctx context.Context, ids, texts []string, metadatas []map[string]any) error {
	start := time.Now()
	if len(ids) != len(texts) {
		return fmt.Errorf("sqlite: %d ids for %d texts", len(ids), len(texts))
	}
	if len(ids) == 0 {
		return nil
	}
	s.logger.Debug("sqlite: add chunks", "count", len(ids))

	embeddings, err := s.embed.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("sqlite: embed: %w", err)
	}
	if len(embeddings) != len(texts) {
		return fmt.Errorf("sqlite: embed returned %d vectors for %d texts", len(embeddings), len(texts))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	for i, id := range ids {
		var metaJSON *string
		if i < len(metadatas) && len(metadatas[i]) > 0 {
			data, err := json.Marshal(metadatas[i])
			if err != nil {
				return fmt.Errorf("sqlite: marshal metadata %s: %w", id, err)
			}
			v := string(data)
			metaJSON = &v
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO chunks (id, document, metadata, embedding) VALUES (?, ?, ?, ?)`,
			id, texts[i], metaJSON, serializeEmbedding(embeddings[i]),
		)
		if err != nil {
			return fmt.Errorf("sqlite: insert %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}

	s.logger.Debug("sqlite: add chunks ok", "count", len(ids), "duration", time.Since(start))
	return nil
}

// Query embeds queryText and scores every stored row by cosine similarity,
// returning the topK matches whose metadata satisfies the filter.
func (s *Store) Query(ctx context.Context, queryText string, topK int, filter map[string]any) ([]cleave.QueryResult, error) {
	start := time.Now()
	embeddings, err := s.embed.Embed(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("sqlite: embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("sqlite: embed query: no vector returned")
	}
	query := embeddings[0]

	rows, err := s.db.QueryContext(ctx, `SELECT id, document, metadata, embedding FROM chunks`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query: %w", err)
	}
	defer rows.Close()

	var results []cleave.QueryResult
	scanned := 0
	for rows.Next() {
		var id, document, embJSON string
		var metaJSON sql.NullString
		if err := rows.Scan(&id, &document, &metaJSON, &embJSON); err != nil {
			return nil, fmt.Errorf("sqlite: scan chunk: %w", err)
		}
		scanned++

		var meta map[string]any
		if metaJSON.Valid {
			_ = json.Unmarshal([]byte(metaJSON.String), &meta)
		}
		if !matchesFilter(meta, filter) {
			continue
		}
		stored, err := deserializeEmbedding(embJSON)
		if err != nil {
			continue
		}
		results = append(results, cleave.QueryResult{
			ID:        id,
			Document:  document,
			Metadata:  meta,
			Relevance: cosineSimilarity(query, stored),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate chunks: %w", err)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	if len(results) > topK {
		results = results[:topK]
	}
	s.logger.Debug("sqlite: query ok", "scanned", scanned, "returned", len(results), "duration", time.Since(start))
	return results, nil
}

// GetByID returns the records for the given ids in store order. Missing ids
// are skipped.
func (s *Store) GetByID(ctx context.Context, ids []string) ([]cleave.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document, metadata FROM chunks WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: get by id: %w", err)
	}
	defer rows.Close()

	var out []cleave.Record
	for rows.Next() {
		var rec cleave.Record
		var metaJSON sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Document, &metaJSON); err != nil {
			return nil, fmt.Errorf("sqlite: scan record: %w", err)
		}
		if metaJSON.Valid {
			_ = json.Unmarshal([]byte(metaJSON.String), &rec.Metadata)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate records: %w", err)
	}
	return out, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count: %w", err)
	}
	return n, nil
}

// DB exposes the underlying handle for callers that need raw access.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// matchesFilter applies equality filters against unmarshalled metadata.
// Numbers compare by value so int filters match JSON float64s.
func matchesFilter(meta, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := meta[k]
		if !ok {
			return false
		}
		if got == want {
			continue
		}
		gf, gok := toFloat(got)
		wf, wok := toFloat(want)
		if !gok || !wok || gf != wf {
			return false
		}
	}
	return true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// cosineSimilarity computes the cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return float32(dot / denom)
}

// serializeEmbedding converts []float32 to a JSON array string.
func serializeEmbedding(embedding []float32) string {
	data, _ := json.Marshal(embedding)
	return string(data)
}

// deserializeEmbedding parses a JSON array string back to []float32.
func deserializeEmbedding(s string) ([]float32, error) {
	var v []float32
	err := json.Unmarshal([]byte(s), &v)
	return v, err
}
