package cleave

import (
	"context"
	"fmt"
	"log/slog"
)

// fallbackProvider tries the remote provider first and degrades to the
// local model transparently. Degradation is logged so operators can see
// quality loss; it is never silent.
type fallbackProvider struct {
	remote EmbeddingProvider
	local  EmbeddingProvider
	logger *slog.Logger
}

// WithFallback wraps remote with a local-model fallback. When remote fails
// (quota, network, auth), the same texts are embedded with local and a
// warning is logged. When both fail the error wraps
// [ErrEmbeddingUnavailable] so callers can detect that no semantic
// chunking is possible.
func WithFallback(remote, local EmbeddingProvider, logger *slog.Logger) EmbeddingProvider {
	if logger == nil {
		logger = NopLogger()
	}
	return &fallbackProvider{remote: remote, local: local, logger: logger}
}

func (f *fallbackProvider) Name() string {
	return f.remote.Name() + "+" + f.local.Name()
}

// Dimensions reports the remote provider's dimensionality. Remote and local
// models should be configured with matching output sizes; the vector store
// rejects mismatched vectors, not this wrapper.
func (f *fallbackProvider) Dimensions() int { return f.remote.Dimensions() }

func (f *fallbackProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, rerr := f.remote.Embed(ctx, texts)
	if rerr == nil {
		return vecs, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	f.logger.Warn("remote embedding failed, degrading to local model",
		"remote", f.remote.Name(), "local", f.local.Name(), "error", rerr)

	vecs, lerr := f.local.Embed(ctx, texts)
	if lerr == nil {
		return vecs, nil
	}
	return nil, fmt.Errorf("%w: remote %s: %v; local %s: %v",
		ErrEmbeddingUnavailable, f.remote.Name(), rerr, f.local.Name(), lerr)
}
