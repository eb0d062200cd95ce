// Package cleave turns long documents into semantically coherent,
// size-bounded retrieval chunks and re-assembles surrounding context at
// query time.
//
// The pipeline embeds every sentence of a document, finds boundary
// candidates at local minima of the adjacent-sentence similarity profile,
// resolves them against hard size constraints, and assembles overlapping
// chunks that carry enough provenance to reconstruct the source document
// losslessly (up to whitespace normalization).
//
// # Quick Start
//
//	remote := openaicompat.New(apiKey, "text-embedding-3-small", baseURL,
//		openaicompat.WithDimensions(1536))
//	local := tei.New("http://localhost:8080", tei.WithDimensions(1536))
//	embedding := cleave.WithBatching(cleave.WithFallback(remote, local, logger))
//
//	store := sqlite.New("cleave.db", embedding)
//	if err := store.Init(ctx); err != nil { ... }
//
//	chunker := chunk.New(embedding)
//	pipeline := ingest.NewPipeline(store, chunker, ingest.WithLegacyFallback(true))
//
//	summary, err := pipeline.Ingest(ctx, docs...)
//
//	retriever := retrieve.New(store)
//	hits, err := retriever.SearchWithContext(ctx, "quarterly revenue", 5)
//
// # Core Interfaces
//
// The root package defines the contracts that all components implement:
//
//   - [EmbeddingProvider] turns text into vectors
//   - [VectorStore] persists chunks with add/query/get-by-id similarity search
//
// # Included Implementations
//
// Providers: provider/openaicompat (remote, OpenAI-compatible APIs),
// provider/tei (local text-embeddings-inference server).
// Storage: store/memory (in-process), store/sqlite (local, pure Go),
// store/postgres (pgvector).
//
// See the cmd/cleave directory for a complete reference application.
package cleave
