// Package resolve builds a ready-to-use embedding provider from
// provider-agnostic configuration: remote with transparent local fallback,
// or local only, always wrapped with batching.
package resolve

import (
	"fmt"
	"log/slog"
	"time"

	cleave "github.com/nevindra/cleave"
	"github.com/nevindra/cleave/provider/openaicompat"
	"github.com/nevindra/cleave/provider/tei"
)

// Config holds provider-agnostic embedding configuration.
type Config struct {
	// Provider selects the embedding path: "remote" or "local".
	Provider string

	// Remote (OpenAI-compatible) settings.
	APIKey        string
	RemoteModel   string
	RemoteBaseURL string

	// Local text-embeddings-inference settings.
	LocalBaseURL string

	// Dimensions of the model output. Remote and local models must agree
	// when the remote path is used, since local serves as its fallback.
	Dimensions int

	// Batching knobs, applied to whichever provider is selected.
	BatchSize     int
	BatchDelay    time.Duration
	MaxInputChars int

	// MaxRetries caps attempts against the remote endpoint before the
	// fallback engages. Zero keeps the retry wrapper's default.
	MaxRetries int

	// Rate limits applied to the assembled chain. Zero disables each.
	RPM int
	TPM int
}

// EmbeddingProvider creates a cleave.EmbeddingProvider from cfg.
//
// "remote" builds an OpenAI-compatible client with transient-error retry and
// the local text-embeddings-inference server as transparent fallback; "local"
// uses the local server alone. Both are wrapped with optional rate limiting
// and batching, batching outermost so each batch counts against the budget.
func EmbeddingProvider(cfg Config, logger *slog.Logger) (cleave.EmbeddingProvider, error) {
	if logger == nil {
		logger = cleave.NopLogger()
	}

	retryOpts := []cleave.RetryOption{cleave.RetryLogger(logger)}
	if cfg.MaxRetries > 0 {
		retryOpts = append(retryOpts, cleave.RetryMaxAttempts(cfg.MaxRetries))
	}

	var base cleave.EmbeddingProvider
	switch cfg.Provider {
	case "remote":
		if cfg.RemoteBaseURL == "" {
			return nil, fmt.Errorf("resolve: remote provider requires a base URL")
		}
		remote := cleave.WithRetry(
			openaicompat.New(cfg.APIKey, cfg.RemoteModel, cfg.RemoteBaseURL,
				openaicompat.WithDimensions(cfg.Dimensions)),
			retryOpts...)
		if cfg.LocalBaseURL != "" {
			local := tei.New(cfg.LocalBaseURL, tei.WithDimensions(cfg.Dimensions))
			base = cleave.WithFallback(remote, local, logger)
		} else {
			base = remote
		}
	case "local":
		if cfg.LocalBaseURL == "" {
			return nil, fmt.Errorf("resolve: local provider requires a base URL")
		}
		base = tei.New(cfg.LocalBaseURL, tei.WithDimensions(cfg.Dimensions))
	default:
		return nil, fmt.Errorf("resolve: unknown embedding provider %q", cfg.Provider)
	}

	if cfg.RPM > 0 || cfg.TPM > 0 {
		var limits []cleave.RateLimitOption
		if cfg.RPM > 0 {
			limits = append(limits, cleave.RPM(cfg.RPM))
		}
		if cfg.TPM > 0 {
			limits = append(limits, cleave.TPM(cfg.TPM))
		}
		base = cleave.WithRateLimit(base, limits...)
	}

	var opts []cleave.BatchOption
	if cfg.BatchSize > 0 {
		opts = append(opts, cleave.BatchSize(cfg.BatchSize))
	}
	if cfg.BatchDelay > 0 {
		opts = append(opts, cleave.BatchDelay(cfg.BatchDelay))
	}
	if cfg.MaxInputChars > 0 {
		opts = append(opts, cleave.MaxInputChars(cfg.MaxInputChars))
	}
	return cleave.WithBatching(base, opts...), nil
}
