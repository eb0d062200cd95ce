package memory

import (
	"context"
	"errors"
	"testing"
)

// topicEmbed maps texts to fixed directions by keyword so similarity
// ordering is predictable.
type topicEmbed struct {
	err error
}

func (topicEmbed) Name() string    { return "topic" }
func (topicEmbed) Dimensions() int { return 2 }

func (e topicEmbed) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		switch {
		case contains(t, "cat"):
			out[i] = []float32{1, 0}
		case contains(t, "dog"):
			out[i] = []float32{0, 1}
		default:
			out[i] = []float32{0.7, 0.7}
		}
	}
	return out, nil
}

func contains(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

func TestAddAndCount(t *testing.T) {
	s := New(topicEmbed{})
	err := s.Add(context.Background(),
		[]string{"a", "b"},
		[]string{"the cat purred", "the dog barked"},
		[]map[string]any{{"k": "v"}, nil},
	)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	n, err := s.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestAddLengthMismatch(t *testing.T) {
	s := New(topicEmbed{})
	if err := s.Add(context.Background(), []string{"a"}, []string{"x", "y"}, nil); err == nil {
		t.Error("expected error for mismatched ids and texts")
	}
}

func TestAddEmbedFailure(t *testing.T) {
	s := New(topicEmbed{err: errors.New("down")})
	if err := s.Add(context.Background(), []string{"a"}, []string{"x"}, nil); err == nil {
		t.Error("expected embed error to propagate")
	}
}

func TestQueryRanking(t *testing.T) {
	s := New(topicEmbed{})
	err := s.Add(context.Background(),
		[]string{"cat1", "dog1"},
		[]string{"the cat purred", "the dog barked"},
		nil,
	)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	results, err := s.Query(context.Background(), "another cat story", 2, nil)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ID != "cat1" {
		t.Errorf("top result = %s, want cat1", results[0].ID)
	}
	if results[0].Relevance <= results[1].Relevance {
		t.Error("results not sorted by relevance")
	}
}

func TestQueryMetadataFilter(t *testing.T) {
	s := New(topicEmbed{})
	err := s.Add(context.Background(),
		[]string{"a", "b"},
		[]string{"the cat purred", "the cat slept"},
		[]map[string]any{
			{"chunkIndex": float64(0), "lang": "en"},
			{"chunkIndex": float64(1), "lang": "en"},
		},
	)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Int filter value must match the float64 stored value.
	results, err := s.Query(context.Background(), "cat", 10, map[string]any{"chunkIndex": 1})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 || results[0].ID != "b" {
		t.Errorf("filter returned %+v, want only b", results)
	}

	results, err = s.Query(context.Background(), "cat", 10, map[string]any{"lang": "fr"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("mismatched filter returned %d results", len(results))
	}
}

func TestGetByIDSkipsMissing(t *testing.T) {
	s := New(topicEmbed{})
	if err := s.Add(context.Background(), []string{"a"}, []string{"the cat purred"}, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}

	records, err := s.GetByID(context.Background(), []string{"a", "ghost"})
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(records) != 1 || records[0].ID != "a" {
		t.Errorf("got %+v, want only a", records)
	}
}

func TestAddOverwritesExistingID(t *testing.T) {
	s := New(topicEmbed{})
	ctx := context.Background()
	if err := s.Add(ctx, []string{"a"}, []string{"old text"}, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(ctx, []string{"a"}, []string{"new text"}, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}

	n, _ := s.Count(ctx)
	if n != 1 {
		t.Errorf("Count = %d after overwrite, want 1", n)
	}
	records, _ := s.GetByID(ctx, []string{"a"})
	if records[0].Document != "new text" {
		t.Errorf("document = %q, want overwritten text", records[0].Document)
	}
}
