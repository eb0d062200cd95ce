// Package tei implements cleave.EmbeddingProvider against a local
// text-embeddings-inference server, the usual way to run sentence
// transformer models such as all-MiniLM-L6-v2 on the same host.
package tei

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	cleave "github.com/nevindra/cleave"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Client) { t.client = c }
}

// WithDimensions declares the model's output dimensionality
// (default 384, all-MiniLM-L6-v2).
func WithDimensions(n int) Option {
	return func(t *Client) { t.dimensions = n }
}

// Client calls the /embed endpoint of a text-embeddings-inference server.
type Client struct {
	baseURL    string
	dimensions int
	client     *http.Client
}

var _ cleave.EmbeddingProvider = (*Client)(nil)

// New creates a Client for the server at baseURL
// (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		dimensions: 384,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Name() string    { return "tei" }
func (c *Client) Dimensions() int { return c.dimensions }

type embedRequest struct {
	Inputs []string `json:"inputs"`
}

// Embed returns one vector per input, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(embedRequest{Inputs: texts})
	if err != nil {
		return nil, &cleave.ErrEmbedding{Provider: "tei", Message: fmt.Sprintf("marshal request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, &cleave.ErrEmbedding{Provider: "tei", Message: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &cleave.ErrEmbedding{Provider: "tei", Message: fmt.Sprintf("send request: %v", err)}
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

	var vecs [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vecs); err != nil {
		return nil, &cleave.ErrEmbedding{Provider: "tei", Message: fmt.Sprintf("decode response: %v", err)}
	}
	if len(vecs) != len(texts) {
		return nil, &cleave.ErrEmbedding{Provider: "tei",
			Message: fmt.Sprintf("got %d embeddings for %d inputs", len(vecs), len(texts))}
	}
	return vecs, nil
}
