// Package openaicompat implements cleave.EmbeddingProvider for any
// OpenAI-compatible embeddings API.
//
// Works with OpenAI, Together, Mistral, Ollama, vLLM, LM Studio, and any
// other provider that implements the /embeddings endpoint.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	cleave "github.com/nevindra/cleave"
)

// Option configures an Embedding provider.
type Option func(*Embedding)

// WithName sets the provider name reported in errors and logs
// (default "openai").
func WithName(name string) Option {
	return func(e *Embedding) { e.name = name }
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Embedding) { e.client = c }
}

// WithDimensions declares the model's output dimensionality. Stores use it
// to size their vector columns.
func WithDimensions(n int) Option {
	return func(e *Embedding) { e.dimensions = n }
}

// Embedding calls an OpenAI-compatible embeddings endpoint.
type Embedding struct {
	apiKey     string
	model      string
	baseURL    string
	name       string
	dimensions int
	client     *http.Client
}

var _ cleave.EmbeddingProvider = (*Embedding)(nil)

// New creates an OpenAI-compatible embedding provider.
//
// baseURL is the API base (e.g. "https://api.openai.com/v1"); the
// /embeddings path is appended automatically.
func New(apiKey, model, baseURL string, opts ...Option) *Embedding {
	e := &Embedding{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		name:    "openai",
		client:  &http.Client{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Embedding) Name() string    { return e.name }
func (e *Embedding) Dimensions() int { return e.dimensions }

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns one vector per input, in input order. The API may return
// data entries out of order, so results are placed by index.
func (e *Embedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(embeddingRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, &cleave.ErrEmbedding{Provider: e.name, Message: fmt.Sprintf("marshal request: %v", err)}
	}

	url := e.baseURL + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &cleave.ErrEmbedding{Provider: e.name, Message: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &cleave.ErrEmbedding{Provider: e.name, Message: fmt.Sprintf("send request: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &cleave.ErrHTTP{
			Status:     resp.StatusCode,
			Body:       string(body),
			RetryAfter: cleave.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &cleave.ErrEmbedding{Provider: e.name, Message: fmt.Sprintf("decode response: %v", err)}
	}
	if len(parsed.Data) != len(texts) {
		return nil, &cleave.ErrEmbedding{Provider: e.name,
			Message: fmt.Sprintf("got %d embeddings for %d inputs", len(parsed.Data), len(texts))}
	}

	out := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, &cleave.ErrEmbedding{Provider: e.name,
				Message: fmt.Sprintf("embedding index %d out of range", d.Index)}
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
