package tei

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	cleave "github.com/nevindra/cleave"
)

func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		vecs := make([][]float32, len(req.Inputs))
		for i := range vecs {
			vecs[i] = []float32{float32(i), 0}
		}
		json.NewEncoder(w).Encode(vecs)
	}))
	defer server.Close()

	c := New(server.URL)
	vecs, err := c.Embed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d vectors", len(vecs))
	}
	if vecs[2][0] != 2 {
		t.Errorf("order not preserved: %v", vecs)
	}
	if c.Dimensions() != 384 {
		t.Errorf("default Dimensions = %d, want 384", c.Dimensions())
	}
}

func TestEmbedHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := New(server.URL).Embed(context.Background(), []string{"x"})
	var httpErr *cleave.ErrHTTP
	if !errors.As(err, &httpErr) {
		t.Fatalf("got %T, want *cleave.ErrHTTP", err)
	}
}

func TestEmbedCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode([][]float32{{1, 0}})
	}))
	defer server.Close()

	_, err := New(server.URL).Embed(context.Background(), []string{"a", "b"})
	var embErr *cleave.ErrEmbedding
	if !errors.As(err, &embErr) {
		t.Fatalf("got %T, want *cleave.ErrEmbedding", err)
	}
}
