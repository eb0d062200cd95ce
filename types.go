package cleave

// Chunking methods recorded in chunk metadata. Retrieval callers use these
// to detect quality degradation: legacyFallback means the document was split
// by size alone, without embedding guidance.
const (
	MethodSemantic       = "semantic"
	MethodLegacyFallback = "legacyFallback"
)

// Metadata keys injected into every persisted chunk record alongside
// caller-supplied fields.
const (
	MetaDocumentID         = "originalDocumentId"
	MetaChunkIndex         = "chunkIndex"
	MetaTotalChunks        = "totalChunksInDocument"
	MetaSentenceCount      = "sentenceCount"
	MetaChunkingMethod     = "chunkingMethod"
	MetaCoreStart          = "coreStart"
	MetaOverlapLength      = "overlapLength"
	MetaOverlapChars       = "overlapChars"
	MetaCoherence          = "semanticCoherence"
	MetaBoundaryConfidence = "boundaryConfidence"
)

// SemanticChunk is the externally visible retrieval unit produced by the
// chunking engine. Chunks are immutable once created; re-ingesting a document
// supersedes its previous chunks instead of mutating them.
type SemanticChunk struct {
	// Text is the concatenation of sentences [CoreStart-OverlapLength, end).
	Text string `json:"text"`

	DocumentID string `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`

	// CoreStart is the document-ordinal sentence index where the
	// non-overlapping region begins, i.e. the content unique to this chunk.
	CoreStart int `json:"core_start"`

	// OverlapLength counts sentences borrowed from the previous chunk's core.
	OverlapLength int `json:"overlap_length"`

	// OverlapChars is the byte offset of the core region within Text.
	// Text[OverlapChars:] is the core region; document reconstruction
	// concatenates core regions in chunk-index order.
	OverlapChars int `json:"overlap_chars"`

	// BoundaryConfidence and SemanticCoherence are quality signals in [0,1].
	// Coherence is the mean adjacent-sentence cosine similarity inside this
	// chunk only.
	BoundaryConfidence float32 `json:"boundary_confidence"`
	SemanticCoherence  float32 `json:"semantic_coherence"`

	SentenceCount int    `json:"sentence_count"`
	Method        string `json:"chunking_method"`

	// Metadata holds caller-supplied fields; injected provenance fields are
	// added on persistence via PersistedMetadata.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// CoreText returns the non-overlapping region of the chunk.
func (c SemanticChunk) CoreText() string {
	if c.OverlapChars <= 0 || c.OverlapChars > len(c.Text) {
		return c.Text
	}
	return c.Text[c.OverlapChars:]
}

// PersistedMetadata returns the metadata map written to the vector store:
// caller-supplied fields plus the injected provenance fields. totalChunks is
// the number of chunks the source document produced.
func (c SemanticChunk) PersistedMetadata(totalChunks int) map[string]any {
	m := make(map[string]any, len(c.Metadata)+10)
	for k, v := range c.Metadata {
		m[k] = v
	}
	m[MetaDocumentID] = c.DocumentID
	m[MetaChunkIndex] = c.ChunkIndex
	m[MetaTotalChunks] = totalChunks
	m[MetaSentenceCount] = c.SentenceCount
	m[MetaChunkingMethod] = c.Method
	m[MetaCoreStart] = c.CoreStart
	m[MetaOverlapLength] = c.OverlapLength
	m[MetaOverlapChars] = c.OverlapChars
	m[MetaCoherence] = float64(c.SemanticCoherence)
	m[MetaBoundaryConfidence] = float64(c.BoundaryConfidence)
	return m
}

// DocumentInput is one document in an ingestion batch. ID is optional; when
// empty the pipeline assigns a fresh one.
type DocumentInput struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
