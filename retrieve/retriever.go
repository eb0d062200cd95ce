// Package retrieve finds chunks for a query and restores the surrounding
// document context that chunking split away: sibling expansion around each
// hit, whole-article ranking, and lossless document reconstruction.
package retrieve

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	cleave "github.com/nevindra/cleave"
)

// Role marks why a chunk is in a result set.
type Role string

const (
	// RolePrimary chunks matched the query directly.
	RolePrimary Role = "primary"
	// RoleContext chunks were injected as neighbors of a primary hit.
	RoleContext Role = "context"
)

// Result is one scored chunk. Context chunks carry zero relevance; they are
// present for their position, not their match.
type Result struct {
	ChunkID    string         `json:"chunk_id"`
	DocumentID string         `json:"document_id"`
	ChunkIndex int            `json:"chunk_index"`
	Text       string         `json:"text"`
	Relevance  float32        `json:"relevance"`
	Role       Role           `json:"role"`
	Method     string         `json:"chunking_method,omitempty"`
	Coherence  float32        `json:"semantic_coherence,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Article is a document-level result: all chunks of one source document in
// reading order, scored by how relevant and how complete the match was.
type Article struct {
	DocumentID    string   `json:"document_id"`
	Score         float64  `json:"score"`
	BestRelevance float32  `json:"best_relevance"`
	Completeness  float64  `json:"completeness"`
	MatchedChunks int      `json:"matched_chunks"`
	TotalChunks   int      `json:"total_chunks"`
	Chunks        []Result `json:"chunks"`
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets the retriever logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithContextWindow sets how many chunk indexes on each side of a hit are
// injected as context. Default is 1.
func WithContextWindow(n int) Option {
	return func(r *Retriever) { r.window = n }
}

// WithMaxSiblings caps the number of context chunks injected per source
// document. Default is 4.
func WithMaxSiblings(n int) Option {
	return func(r *Retriever) { r.maxSiblings = n }
}

// WithCompletenessWeight sets the weight of document completeness versus the
// best chunk's relevance in article scoring. Must be in [0,1]. Default 0.3.
func WithCompletenessWeight(w float64) Option {
	return func(r *Retriever) { r.completenessWeight = w }
}

// WithOverfetchMultiplier sets how many extra candidates are fetched before
// client-side filtering and document grouping. Default is 3.
func WithOverfetchMultiplier(n int) Option {
	return func(r *Retriever) { r.overfetch = n }
}

// SearchOption configures one search call.
type SearchOption func(*searchParams)

type searchParams struct {
	method       string
	minCoherence float32
	filter       map[string]any
}

// WithMethod restricts results to chunks produced by the given chunking
// method, e.g. cleave.MethodSemantic.
func WithMethod(method string) SearchOption {
	return func(p *searchParams) { p.method = method }
}

// WithMinCoherence drops chunks whose semantic coherence is below the given
// threshold.
func WithMinCoherence(min float32) SearchOption {
	return func(p *searchParams) { p.minCoherence = min }
}

// WithFilter adds caller metadata constraints to the store query.
func WithFilter(filter map[string]any) SearchOption {
	return func(p *searchParams) { p.filter = filter }
}

// Retriever answers queries against a vector store populated by the
// ingestion pipeline. It relies on the provenance metadata each chunk
// carries and on the deterministic documentID#index chunk id scheme.
type Retriever struct {
	store  cleave.VectorStore
	logger *slog.Logger

	window             int
	maxSiblings        int
	completenessWeight float64
	overfetch          int
}

// New creates a Retriever.
func New(store cleave.VectorStore, opts ...Option) *Retriever {
	r := &Retriever{
		store:              store,
		logger:             cleave.NopLogger(),
		window:             1,
		maxSiblings:        4,
		completenessWeight: 0.3,
		overfetch:          3,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Search runs a direct vector query and returns the top chunks as primary
// results, optionally filtered by chunking method or minimum coherence.
func (r *Retriever) Search(ctx context.Context, query string, topK int, opts ...SearchOption) ([]Result, error) {
	var p searchParams
	for _, o := range opts {
		o(&p)
	}
	return r.search(ctx, query, topK, p)
}

func (r *Retriever) search(ctx context.Context, query string, topK int, p searchParams) ([]Result, error) {
	filter := make(map[string]any, len(p.filter)+1)
	for k, v := range p.filter {
		filter[k] = v
	}
	if p.method != "" {
		filter[cleave.MetaChunkingMethod] = p.method
	}
	if len(filter) == 0 {
		filter = nil
	}

	fetchK := topK
	if p.minCoherence > 0 {
		// Coherence is filtered client-side, so fetch extra candidates.
		fetchK = max(topK*r.overfetch, topK)
	}

	hits, err := r.store.Query(ctx, query, fetchK, filter)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		res := resultFromHit(h)
		if p.minCoherence > 0 && res.Coherence < p.minCoherence {
			continue
		}
		results = append(results, res)
		if len(results) == topK {
			break
		}
	}
	return results, nil
}

// SearchWithContext runs Search, then injects each hit's neighboring chunks
// from the same source document. Each primary result is followed by its
// context chunks in reading order; a chunk never appears twice even when hit
// windows overlap.
func (r *Retriever) SearchWithContext(ctx context.Context, query string, topK int, opts ...SearchOption) ([]Result, error) {
	var p searchParams
	for _, o := range opts {
		o(&p)
	}

	primaries, err := r.search(ctx, query, topK, p)
	if err != nil {
		return nil, err
	}
	if len(primaries) == 0 || r.window <= 0 {
		return primaries, nil
	}

	seen := make(map[string]bool, len(primaries))
	for _, pr := range primaries {
		seen[pr.ChunkID] = true
	}

	// Sibling indexes per primary, capped per source document.
	injected := make(map[string]int)
	wanted := make([][]string, len(primaries))
	var fetchIDs []string
	for i, pr := range primaries {
		total, ok := metaInt(pr.Metadata, cleave.MetaTotalChunks)
		if !ok {
			continue
		}
		for d := -r.window; d <= r.window; d++ {
			idx := pr.ChunkIndex + d
			if d == 0 || idx < 0 || idx >= total {
				continue
			}
			id := cleave.ChunkID(pr.DocumentID, idx)
			if seen[id] {
				continue
			}
			if injected[pr.DocumentID] >= r.maxSiblings {
				break
			}
			seen[id] = true
			injected[pr.DocumentID]++
			wanted[i] = append(wanted[i], id)
			fetchIDs = append(fetchIDs, id)
		}
	}

	if len(fetchIDs) == 0 {
		return primaries, nil
	}

	records, err := r.store.GetByID(ctx, fetchIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch siblings: %w", err)
	}
	byID := make(map[string]cleave.Record, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}
	r.logger.Debug("expanded context", "primaries", len(primaries), "siblings", len(records))

	var out []Result
	for i, pr := range primaries {
		out = append(out, pr)
		var siblings []Result
		for _, id := range wanted[i] {
			rec, ok := byID[id]
			if !ok {
				continue
			}
			siblings = append(siblings, resultFromRecord(rec, RoleContext))
		}
		sort.Slice(siblings, func(a, b int) bool {
			return siblings[a].ChunkIndex < siblings[b].ChunkIndex
		})
		out = append(out, siblings...)
	}
	return out, nil
}

// SearchArticles ranks source documents rather than individual chunks. A
// document's score combines its best chunk's relevance with the fraction of
// its chunks present in the candidate set, then the full article is returned
// in reading order for each of the topDocs best documents.
func (r *Retriever) SearchArticles(ctx context.Context, query string, topDocs int, opts ...SearchOption) ([]Article, error) {
	var p searchParams
	for _, o := range opts {
		o(&p)
	}

	fetchK := max(topDocs*r.overfetch, topDocs)
	hits, err := r.search(ctx, query, fetchK, p)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	type docAgg struct {
		best    float32
		matched map[int]float32
		total   int
	}
	docs := make(map[string]*docAgg)
	var order []string
	for _, h := range hits {
		agg, ok := docs[h.DocumentID]
		if !ok {
			total, _ := metaInt(h.Metadata, cleave.MetaTotalChunks)
			agg = &docAgg{matched: make(map[int]float32), total: total}
			docs[h.DocumentID] = agg
			order = append(order, h.DocumentID)
		}
		if h.Relevance > agg.best {
			agg.best = h.Relevance
		}
		agg.matched[h.ChunkIndex] = h.Relevance
	}

	articles := make([]Article, 0, len(order))
	for _, docID := range order {
		agg := docs[docID]
		completeness := 0.0
		if agg.total > 0 {
			completeness = float64(len(agg.matched)) / float64(agg.total)
		}
		score := float64(agg.best)*(1-r.completenessWeight) + completeness*r.completenessWeight
		articles = append(articles, Article{
			DocumentID:    docID,
			Score:         score,
			BestRelevance: agg.best,
			Completeness:  completeness,
			MatchedChunks: len(agg.matched),
			TotalChunks:   agg.total,
		})
	}
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].Score > articles[j].Score
	})
	if len(articles) > topDocs {
		articles = articles[:topDocs]
	}

	// Fill each surviving article with its full chunk sequence.
	for i := range articles {
		art := &articles[i]
		if art.TotalChunks == 0 {
			continue
		}
		ids := make([]string, art.TotalChunks)
		for idx := range ids {
			ids[idx] = cleave.ChunkID(art.DocumentID, idx)
		}
		records, err := r.store.GetByID(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("fetch article %s: %w", art.DocumentID, err)
		}
		matched := docs[art.DocumentID].matched
		for _, rec := range records {
			res := resultFromRecord(rec, RoleContext)
			if rel, ok := matched[res.ChunkIndex]; ok {
				res.Role = RolePrimary
				res.Relevance = rel
			}
			art.Chunks = append(art.Chunks, res)
		}
		sort.Slice(art.Chunks, func(a, b int) bool {
			return art.Chunks[a].ChunkIndex < art.Chunks[b].ChunkIndex
		})
	}
	return articles, nil
}

// ReconstructDocument rebuilds the original document text from its persisted
// chunks by concatenating core regions in chunk order. The result matches
// the ingested text up to whitespace normalization.
func (r *Retriever) ReconstructDocument(ctx context.Context, documentID string) (string, error) {
	first, err := r.store.GetByID(ctx, []string{cleave.ChunkID(documentID, 0)})
	if err != nil {
		return "", fmt.Errorf("fetch document %s: %w", documentID, err)
	}
	if len(first) == 0 {
		return "", fmt.Errorf("document %s: no chunks found", documentID)
	}
	total, ok := metaInt(first[0].Metadata, cleave.MetaTotalChunks)
	if !ok || total <= 0 {
		return "", fmt.Errorf("document %s: missing chunk count metadata", documentID)
	}

	ids := make([]string, total)
	for i := range ids {
		ids[i] = cleave.ChunkID(documentID, i)
	}
	records, err := r.store.GetByID(ctx, ids)
	if err != nil {
		return "", fmt.Errorf("fetch document %s: %w", documentID, err)
	}
	if len(records) != total {
		return "", fmt.Errorf("document %s: %d of %d chunks found", documentID, len(records), total)
	}

	sort.Slice(records, func(a, b int) bool {
		ai, _ := metaInt(records[a].Metadata, cleave.MetaChunkIndex)
		bi, _ := metaInt(records[b].Metadata, cleave.MetaChunkIndex)
		return ai < bi
	})

	var b strings.Builder
	for _, rec := range records {
		core := rec.Document
		if overlapChars, ok := metaInt(rec.Metadata, cleave.MetaOverlapChars); ok &&
			overlapChars > 0 && overlapChars <= len(core) {
			core = core[overlapChars:]
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(core)
	}
	return b.String(), nil
}

func resultFromHit(h cleave.QueryResult) Result {
	res := resultFromMeta(h.ID, h.Document, h.Metadata)
	res.Relevance = h.Relevance
	res.Role = RolePrimary
	return res
}

func resultFromRecord(rec cleave.Record, role Role) Result {
	res := resultFromMeta(rec.ID, rec.Document, rec.Metadata)
	res.Role = role
	return res
}

func resultFromMeta(id, text string, meta map[string]any) Result {
	idx, _ := metaInt(meta, cleave.MetaChunkIndex)
	coherence, _ := metaFloat(meta, cleave.MetaCoherence)
	return Result{
		ChunkID:    id,
		DocumentID: metaString(meta, cleave.MetaDocumentID),
		ChunkIndex: idx,
		Text:       text,
		Method:     metaString(meta, cleave.MetaChunkingMethod),
		Coherence:  float32(coherence),
		Metadata:   meta,
	}
}
