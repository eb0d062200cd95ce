package cleave

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrEmbeddingUnavailable reports that both the remote and the local
// embedding path failed. No semantic chunking is possible; callers must fall
// back to legacy chunking or abort.
var ErrEmbeddingUnavailable = errors.New("embedding unavailable")

// ErrPersistence marks a vector-store write failure. Persistence failures
// are surfaced as-is and never retried silently.
var ErrPersistence = errors.New("persistence failed")

// ErrEmbedding is a provider-level embedding failure.
type ErrEmbedding struct {
	Provider string
	Message  string
}

func (e *ErrEmbedding) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// ErrHTTP carries a non-2xx response from an embedding endpoint.
// RetryAfter is parsed from the Retry-After header when present.
type ErrHTTP struct {
	Status     int
	Body       string
	RetryAfter time.Duration
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

// ParseRetryAfter parses a Retry-After header value: either delay seconds or
// an HTTP date. Returns 0 for empty or unparseable values.
func ParseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// ErrDocumentChunking wraps an unexpected failure while chunking a single
// document. The ingestion pipeline isolates it per document when legacy
// fallback is enabled, otherwise it aborts the batch.
type ErrDocumentChunking struct {
	DocumentID string
	Err        error
}

func (e *ErrDocumentChunking) Error() string {
	return fmt.Sprintf("chunk document %s: %v", e.DocumentID, e.Err)
}

func (e *ErrDocumentChunking) Unwrap() error { return e.Err }
