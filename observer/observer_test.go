package observer

import (
	"context"
	"errors"
	"testing"

	cleave "github.com/nevindra/cleave"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

// mockEmbedding for observer tests.
type mockEmbedding struct {
	name string
	dims int
	vecs [][]float32
	err  error
}

func (m *mockEmbedding) Name() string    { return m.name }
func (m *mockEmbedding) Dimensions() int { return m.dims }
func (m *mockEmbedding) Embed(_ context.Context, _ []string) ([][]float32, error) {
	return m.vecs, m.err
}

// mockStore for observer tests.
type mockStore struct {
	addCalls int
	addErr   error
	hits     []cleave.QueryResult
	queryErr error
	records  []cleave.Record
	count    int
}

func (m *mockStore) Add(_ context.Context, ids []string, _ []string, _ []map[string]any) error {
	m.addCalls++
	return m.addErr
}

func (m *mockStore) Query(_ context.Context, _ string, _ int, _ map[string]any) ([]cleave.QueryResult, error) {
	return m.hits, m.queryErr
}

func (m *mockStore) GetByID(_ context.Context, _ []string) ([]cleave.Record, error) {
	return m.records, nil
}

func (m *mockStore) Count(_ context.Context) (int, error) {
	return m.count, nil
}

// testInstruments creates a no-op Instruments using the global OTEL providers
// (which are no-ops by default). This is safe for testing delegation behavior
// without any real OTEL backend.
func testInstruments(t *testing.T) *Instruments {
	t.Helper()
	inst, err := newInstruments()
	if err != nil {
		t.Fatalf("newInstruments: %v", err)
	}
	return inst
}

// ---------------------------------------------------------------------------
// ObservedEmbedding tests
// ---------------------------------------------------------------------------

func TestObservedEmbeddingName(t *testing.T) {
	inner := &mockEmbedding{name: "embed-provider"}
	oe := WrapEmbedding(inner, testInstruments(t))

	got := oe.Name()
	if got != "embed-provider" {
		t.Errorf("Name() = %q, want %q", got, "embed-provider")
	}
}

func TestObservedEmbeddingDimensions(t *testing.T) {
	inner := &mockEmbedding{dims: 768}
	oe := WrapEmbedding(inner, testInstruments(t))

	got := oe.Dimensions()
	if got != 768 {
		t.Errorf("Dimensions() = %d, want %d", got, 768)
	}
}

func TestObservedEmbeddingEmbed(t *testing.T) {
	want := [][]float32{
		{0.1, 0.2, 0.3},
		{0.4, 0.5, 0.6},
	}
	inner := &mockEmbedding{name: "e", dims: 3, vecs: want}
	oe := WrapEmbedding(inner, testInstruments(t))

	got, err := oe.Embed(context.Background(), []string{"hello", "world"})
	if err != nil {
		t.Fatalf("Embed returned unexpected error: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Embed returned %d vectors, want %d", len(got), len(want))
	}
	for i := range got {
		if len(got[i]) != len(want[i]) {
			t.Fatalf("vector[%d] length = %d, want %d", i, len(got[i]), len(want[i]))
		}
		for j := range got[i] {
			if got[i][j] != want[i][j] {
				t.Errorf("vector[%d][%d] = %f, want %f", i, j, got[i][j], want[i][j])
			}
		}
	}
}

func TestObservedEmbeddingEmbedError(t *testing.T) {
	wantErr := errors.New("embedding service down")
	inner := &mockEmbedding{name: "e", dims: 3, err: wantErr}
	oe := WrapEmbedding(inner, testInstruments(t))

	_, err := oe.Embed(context.Background(), []string{"test"})
	if !errors.Is(err, wantErr) {
		t.Errorf("Embed error = %v, want %v", err, wantErr)
	}
}

// ---------------------------------------------------------------------------
// ObservedStore tests
// ---------------------------------------------------------------------------

func TestObservedStoreAdd(t *testing.T) {
	inner := &mockStore{}
	os := WrapStore(inner, "memory", testInstruments(t))

	err := os.Add(context.Background(), []string{"a#0"}, []string{"text"}, []map[string]any{nil})
	if err != nil {
		t.Fatalf("Add returned unexpected error: %v", err)
	}
	if inner.addCalls != 1 {
		t.Errorf("inner Add called %d times, want 1", inner.addCalls)
	}
}

func TestObservedStoreAddError(t *testing.T) {
	wantErr := errors.New("disk full")
	inner := &mockStore{addErr: wantErr}
	os := WrapStore(inner, "sqlite", testInstruments(t))

	err := os.Add(context.Background(), []string{"a#0"}, []string{"text"}, []map[string]any{nil})
	if !errors.Is(err, wantErr) {
		t.Errorf("Add error = %v, want %v", err, wantErr)
	}
}

func TestObservedStoreQuery(t *testing.T) {
	want := []cleave.QueryResult{
		{ID: "doc#0", Document: "first", Relevance: 0.9},
		{ID: "doc#1", Document: "second", Relevance: 0.7},
	}
	inner := &mockStore{hits: want}
	os := WrapStore(inner, "memory", testInstruments(t))

	got, err := os.Query(context.Background(), "query", 2, nil)
	if err != nil {
		t.Fatalf("Query returned unexpected error: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("Query returned %d hits, want %d", len(got), len(want))
	}
	if got[0].ID != "doc#0" || got[1].ID != "doc#1" {
		t.Errorf("hits = %+v, want %+v", got, want)
	}
}

func TestObservedStoreQueryError(t *testing.T) {
	wantErr := errors.New("connection refused")
	inner := &mockStore{queryErr: wantErr}
	os := WrapStore(inner, "postgres", testInstruments(t))

	_, err := os.Query(context.Background(), "query", 5, nil)
	if !errors.Is(err, wantErr) {
		t.Errorf("Query error = %v, want %v", err, wantErr)
	}
}

func TestObservedStoreGetByID(t *testing.T) {
	want := []cleave.Record{{ID: "doc#0", Document: "body"}}
	inner := &mockStore{records: want}
	os := WrapStore(inner, "memory", testInstruments(t))

	got, err := os.GetByID(context.Background(), []string{"doc#0"})
	if err != nil {
		t.Fatalf("GetByID returned unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "doc#0" {
		t.Errorf("records = %+v, want %+v", got, want)
	}
}

func TestObservedStoreCount(t *testing.T) {
	inner := &mockStore{count: 42}
	os := WrapStore(inner, "memory", testInstruments(t))

	n, err := os.Count(context.Background())
	if err != nil {
		t.Fatalf("Count returned unexpected error: %v", err)
	}
	if n != 42 {
		t.Errorf("Count = %d, want 42", n)
	}
}

func TestRecordIngest(t *testing.T) {
	// RecordIngest only emits telemetry; with no-op providers this verifies
	// it does not panic for either chunking method.
	inst := testInstruments(t)
	RecordIngest(context.Background(), inst, "doc-a", cleave.MethodSemantic, 3)
	RecordIngest(context.Background(), inst, "doc-b", cleave.MethodLegacyFallback, 1)
}
