package observer

import "go.opentelemetry.io/otel/attribute"

// Attribute keys for chunking and retrieval observability spans and metrics.
var (
	AttrEmbedProvider   = attribute.Key("embedding.provider")
	AttrEmbedTextCount  = attribute.Key("embedding.text_count")
	AttrEmbedDimensions = attribute.Key("embedding.dimensions")

	AttrDocumentID     = attribute.Key("document.id")
	AttrChunkingMethod = attribute.Key("chunking.method")
	AttrChunkCount     = attribute.Key("chunking.chunk_count")

	AttrStoreBackend = attribute.Key("store.backend")
	AttrStoreRows    = attribute.Key("store.rows")
	AttrStoreTopK    = attribute.Key("store.top_k")
	AttrStoreHits    = attribute.Key("store.hits")
)
