package cleave

import (
	"context"
	"time"
	"unicode/utf8"
)

// batchingProvider wraps an EmbeddingProvider with sequential batching,
// per-text truncation, and an optional inter-batch delay. Batches are never
// issued in parallel: embedding throughput is I/O-bound on the remote side,
// and sequential batches with a delay are what remote rate limits want.
type batchingProvider struct {
	inner     EmbeddingProvider
	batchSize int
	delay     time.Duration
	maxChars  int
}

// BatchOption configures a batching wrapper.
type BatchOption func(*batchingProvider)

// BatchSize sets the number of texts per Embed call to the inner provider
// (default 64).
func BatchSize(n int) BatchOption {
	return func(b *batchingProvider) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

// BatchDelay sets a pause between consecutive batches. Zero disables the
// delay. This is the knob for remote rate limits, not hidden magic.
func BatchDelay(d time.Duration) BatchOption {
	return func(b *batchingProvider) { b.delay = d }
}

// MaxInputChars truncates any single text longer than n characters instead
// of failing the whole batch on the provider's token budget (default 8000).
func MaxInputChars(n int) BatchOption {
	return func(b *batchingProvider) {
		if n > 0 {
			b.maxChars = n
		}
	}
}

// WithBatching wraps p with batching, truncation, and inter-batch delay.
// Compose with other wrappers:
//
//	embedding := cleave.WithBatching(cleave.WithFallback(remote, local, logger),
//		cleave.BatchSize(32), cleave.BatchDelay(200*time.Millisecond))
func WithBatching(p EmbeddingProvider, opts ...BatchOption) EmbeddingProvider {
	b := &batchingProvider{inner: p, batchSize: 64, maxChars: 8000}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *batchingProvider) Name() string    { return b.inner.Name() }
func (b *batchingProvider) Dimensions() int { return b.inner.Dimensions() }

// Embed returns one vector per non-empty input, preserving input order.
// Empty inputs are dropped rather than sent to the provider.
func (b *batchingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	prepared := make([]string, 0, len(texts))
	for _, t := range texts {
		if t == "" {
			continue
		}
		prepared = append(prepared, truncateRunes(t, b.maxChars))
	}
	if len(prepared) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(prepared))
	for i := 0; i < len(prepared); i += b.batchSize {
		if i > 0 && b.delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(b.delay):
			}
		}

		end := min(i+b.batchSize, len(prepared))
		vecs, err := b.inner.Embed(ctx, prepared[i:end])
		if err != nil {
			return nil, err
		}
		if len(vecs) != end-i {
			return nil, &ErrEmbedding{Provider: b.inner.Name(),
				Message: "batch returned wrong vector count"}
		}
		out = append(out, vecs...)
	}
	return out, nil
}

// truncateRunes cuts s to at most n runes without splitting a rune.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
