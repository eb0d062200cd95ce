package chunk

import (
	"context"
	"fmt"
	"log/slog"

	cleave "github.com/nevindra/cleave"
)

// Chunker splits documents at semantic boundaries. It holds its own
// configuration; no shared global state is involved, so independent
// chunkers with different tunings can coexist.
type Chunker struct {
	cfg    Config
	embed  cleave.EmbeddingProvider
	logger *slog.Logger
}

// New creates a Chunker using the given embedding provider.
func New(embed cleave.EmbeddingProvider, opts ...Option) *Chunker {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Chunker{cfg: cfg, embed: embed, logger: cleave.NopLogger()}
}

// WithLogger sets a structured logger. Applies to the chunker, not the
// config, so it is a method rather than an Option.
func (c *Chunker) WithLogger(l *slog.Logger) *Chunker {
	if l != nil {
		c.logger = l
	}
	return c
}

// Config returns the chunker's effective configuration.
func (c *Chunker) Config() Config { return c.cfg }

// ChunkDocument splits one document into semantic chunks. Chunking a
// document is the unit of cancellation: when ctx is cancelled, partially
// computed embeddings are discarded and an error is returned.
//
// On embedding failure the error wraps the provider error inside
// [cleave.ErrDocumentChunking]; the caller decides between legacy fallback
// (see LegacyChunk) and aborting.
func (c *Chunker) ChunkDocument(ctx context.Context, docID, text string, meta map[string]any) ([]cleave.SemanticChunk, error) {
	sentences := ExtractSentences(text, c.cfg.MinSentenceLength)
	if len(sentences) == 0 {
		return nil, nil
	}

	// Too few sentences to segment: one chunk spanning the whole text with
	// maximal confidence, no embedding call needed.
	if len(sentences) <= c.cfg.MinSentencesPerChunk {
		single := []span{{Start: 0, End: len(sentences), Confidence: 1}}
		chunks := assemble(docID, sentences, single, nil, meta, c.cfg, cleave.MethodSemantic)
		chunks[0].SemanticCoherence = 1
		return chunks, nil
	}

	texts := make([]string, len(sentences))
	for i, s := range sentences {
		texts[i] = s.Text
	}

	embeddings, err := c.embed.Embed(ctx, texts)
	if err != nil {
		return nil, &cleave.ErrDocumentChunking{DocumentID: docID, Err: err}
	}
	if len(embeddings) != len(sentences) {
		return nil, &cleave.ErrDocumentChunking{
			DocumentID: docID,
			Err:        fmt.Errorf("embedded %d of %d sentences", len(embeddings), len(sentences)),
		}
	}

	profile := buildProfile(embeddings)
	adjusted := profile
	if c.cfg.EnableDomainOptimization {
		adjusted = applyDomainHeuristics(profile, sentences, c.cfg)
	}

	candidates := detectCandidates(adjusted, c.cfg)
	spans := resolveBoundaries(sentences, candidates, c.cfg)

	c.logger.Debug("document chunked",
		"document_id", docID,
		"sentences", len(sentences),
		"candidates", len(candidates),
		"chunks", len(spans))

	return assemble(docID, sentences, spans, embeddings, meta, c.cfg, cleave.MethodSemantic), nil
}

// LegacyChunk is the deterministic, embedding-free fallback: a fixed-size
// sentence-respecting split driven by the target chunk size. Chunks are
// tagged [cleave.MethodLegacyFallback] so callers can detect the quality
// degradation.
func (c *Chunker) LegacyChunk(docID, text string, meta map[string]any) []cleave.SemanticChunk {
	sentences := ExtractSentences(text, c.cfg.MinSentenceLength)
	if len(sentences) == 0 {
		return nil
	}
	spans := sizeOnlySpans(sentences, c.cfg)
	return assemble(docID, sentences, spans, nil, meta, c.cfg, cleave.MethodLegacyFallback)
}
