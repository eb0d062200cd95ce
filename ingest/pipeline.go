package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	cleave "github.com/nevindra/cleave"
	"github.com/nevindra/cleave/chunk"
)

// Pipeline runs extract, chunk, and store for document batches. Each Ingest
// call is all-or-nothing: chunks reach the vector store in a single Add only
// after every document in the batch chunked successfully.
type Pipeline struct {
	store      cleave.VectorStore
	chunker    *chunk.Chunker
	extractors map[ContentType]Extractor
	fallback   bool
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLegacyFallback controls what happens when embedding fails during
// chunking. Enabled (the default), the document is re-chunked by size alone
// and tagged accordingly; disabled, the whole batch fails without writes.
func WithLegacyFallback(enabled bool) Option {
	return func(p *Pipeline) { p.fallback = enabled }
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithExtractor registers an Extractor for a content type, replacing the
// built-in one.
func WithExtractor(ct ContentType, e Extractor) Option {
	return func(p *Pipeline) { p.extractors[ct] = e }
}

// NewPipeline creates a Pipeline with the built-in extractors and legacy
// fallback enabled.
func NewPipeline(store cleave.VectorStore, chunker *chunk.Chunker, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:   store,
		chunker: chunker,
		extractors: map[ContentType]Extractor{
			TypePlainText: PlainTextExtractor{},
			TypeHTML:      NewHTMLExtractor(),
			TypeMarkdown:  NewMarkdownExtractor(),
			TypePDF:       NewPDFExtractor(),
		},
		fallback: true,
		logger:   cleave.NopLogger(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// DocumentSummary reports how one document was ingested.
type DocumentSummary struct {
	DocumentID string `json:"document_id"`
	Method     string `json:"chunking_method"`
	ChunkCount int    `json:"chunk_count"`
}

// Summary reports an ingestion batch: per-document outcomes plus aggregate
// quality statistics.
type Summary struct {
	Documents     []DocumentSummary `json:"documents"`
	TotalChunks   int               `json:"total_chunks"`
	FallbackCount int               `json:"fallback_count"`
	AvgChunkSize  float64           `json:"avg_chunk_size"`
	AvgCoherence  float64           `json:"avg_coherence"`
	Elapsed       time.Duration     `json:"elapsed"`
}

// Ingest chunks every document and persists all resulting chunks in one
// store write. Documents with empty content are recorded with zero chunks.
// When embedding fails for a document and legacy fallback is disabled, the
// batch aborts with no writes and the error identifies the document.
func (p *Pipeline) Ingest(ctx context.Context, docs ...cleave.DocumentInput) (Summary, error) {
	start := time.Now()
	var sum Summary

	var ids []string
	var texts []string
	var metas []map[string]any
	var sizeTotal int
	var coherenceTotal float64
	var coherenceCount int

	for _, doc := range docs {
		docID := doc.ID
		if docID == "" {
			docID = cleave.NewID()
		}

		chunks, err := p.chunker.ChunkDocument(ctx, docID, doc.Content, doc.Metadata)
		method := cleave.MethodSemantic
		if err != nil {
			// Caller cancellation is not an embedding outage; stop the
			// batch instead of degrading the remaining documents.
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return Summary{}, fmt.Errorf("ingest %s: %w", docID, err)
			}
			var dce *cleave.ErrDocumentChunking
			if !errors.As(err, &dce) || !p.fallback {
				return Summary{}, fmt.Errorf("ingest %s: %w", docID, err)
			}
			p.logger.Warn("semantic chunking failed, using size-only fallback",
				"documentID", docID, "error", dce.Err)
			chunks = p.chunker.LegacyChunk(docID, doc.Content, doc.Metadata)
			method = cleave.MethodLegacyFallback
			sum.FallbackCount++
		}

		for _, ch := range chunks {
			ids = append(ids, cleave.ChunkID(docID, ch.ChunkIndex))
			texts = append(texts, ch.Text)
			metas = append(metas, ch.PersistedMetadata(len(chunks)))
			sizeTotal += len(ch.Text)
			if ch.Method == cleave.MethodSemantic {
				coherenceTotal += float64(ch.SemanticCoherence)
				coherenceCount++
			}
		}

		sum.Documents = append(sum.Documents, DocumentSummary{
			DocumentID: docID,
			Method:     method,
			ChunkCount: len(chunks),
		})
		sum.TotalChunks += len(chunks)
	}

	if len(ids) > 0 {
		if err := p.store.Add(ctx, ids, texts, metas); err != nil {
			return Summary{}, fmt.Errorf("%w: %w", cleave.ErrPersistence, err)
		}
	}

	if sum.TotalChunks > 0 {
		sum.AvgChunkSize = float64(sizeTotal) / float64(sum.TotalChunks)
	}
	if coherenceCount > 0 {
		sum.AvgCoherence = coherenceTotal / float64(coherenceCount)
	}
	sum.Elapsed = time.Since(start)

	p.logger.Info("ingested batch",
		"documents", len(sum.Documents),
		"chunks", sum.TotalChunks,
		"fallbacks", sum.FallbackCount,
		"elapsed", sum.Elapsed)

	return sum, nil
}

// IngestFile extracts text from raw file content based on the filename
// extension, then ingests it as a single document.
func (p *Pipeline) IngestFile(ctx context.Context, content []byte, filename string, meta map[string]any) (Summary, error) {
	ct := ContentTypeFromExtension(filepath.Ext(filename))
	extractor, ok := p.extractors[ct]
	if !ok {
		extractor = PlainTextExtractor{}
	}

	text, err := extractor.Extract(content)
	if err != nil {
		return Summary{}, fmt.Errorf("extract %s: %w", ct, err)
	}

	m := make(map[string]any, len(meta)+2)
	for k, v := range meta {
		m[k] = v
	}
	if _, ok := m["source"]; !ok {
		m["source"] = filename
	}
	if _, ok := m["title"]; !ok {
		m["title"] = filepath.Base(filename)
	}

	return p.Ingest(ctx, cleave.DocumentInput{Content: text, Metadata: m})
}

// IngestReader reads everything from r and ingests it, detecting the content
// type from the filename.
func (p *Pipeline) IngestReader(ctx context.Context, r io.Reader, filename string, meta map[string]any) (Summary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Summary{}, fmt.Errorf("read: %w", err)
	}
	return p.IngestFile(ctx, data, filename, meta)
}
