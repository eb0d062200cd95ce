// Package memory implements cleave.VectorStore in process memory with
// brute-force cosine similarity. Intended for tests and small corpora;
// nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	cleave "github.com/nevindra/cleave"
)

// Store is an in-memory vector store. Safe for concurrent use.
type Store struct {
	embed cleave.EmbeddingProvider

	mu      sync.RWMutex
	records map[string]record
}

type record struct {
	document  string
	metadata  map[string]any
	embedding []float32
}

var _ cleave.VectorStore = (*Store)(nil)

// New creates a Store that computes embeddings with the given provider.
func New(embed cleave.EmbeddingProvider) *Store {
	return &Store{
		embed:   embed,
		records: make(map[string]record),
	}
}

// Add embeds texts and stores one record per id. Existing ids are
// overwritten.
func (s *Store) Add(ctx context.Context, ids, texts []string, metadatas []map[string]any) error {
	if len(ids) != len(texts) {
		return fmt.Errorf("memory: %d ids for %d texts", len(ids), len(texts))
	}
	if len(ids) == 0 {
		return nil
	}

	embeddings, err := s.embed.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("memory: embed: %w", err)
	}
	if len(embeddings) != len(texts) {
		return fmt.Errorf("memory: embed returned %d vectors for %d texts", len(embeddings), len(texts))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range ids {
		var meta map[string]any
		if i < len(metadatas) {
			meta = metadatas[i]
		}
		s.records[id] = record{
			document:  texts[i],
			metadata:  meta,
			embedding: embeddings[i],
		}
	}
	return nil
}

// Query embeds queryText and returns the topK most similar records whose
// metadata matches every filter key.
func (s *Store) Query(ctx context.Context, queryText string, topK int, filter map[string]any) ([]cleave.QueryResult, error) {
	embeddings, err := s.embed.Embed(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("memory: embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("memory: embed query: no vector returned")
	}
	query := embeddings[0]

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []cleave.QueryResult
	for id, rec := range s.records {
		if !matchesFilter(rec.metadata, filter) {
			continue
		}
		results = append(results, cleave.QueryResult{
			ID:        id,
			Document:  rec.document,
			Metadata:  rec.metadata,
			Relevance: cosineSimilarity(query, rec.embedding),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// GetByID returns the records for the given ids. Missing ids are skipped.
func (s *Store) GetByID(_ context.Context, ids []string) ([]cleave.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []cleave.Record
	for _, id := range ids {
		rec, ok := s.records[id]
		if !ok {
			continue
		}
		out = append(out, cleave.Record{
			ID:       id,
			Document: rec.document,
			Metadata: rec.metadata,
		})
	}
	return out, nil
}

// Count returns the number of stored records.
func (s *Store) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func matchesFilter(meta, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := meta[k]
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// valuesEqual compares metadata values with numeric coercion so that an int
// filter matches a float64 stored via a JSON round trip.
func valuesEqual(a, b any) bool {
	if a == b {
		return true
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	return aok && bok && af == bf
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
