package memory

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// stubEmbedder returns fixed vectors per text so similarity ordering is
// fully deterministic in tests.
type stubEmbedder struct {
	vectors map[string][]float32
	fail    bool
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if s.fail {
		return nil, errors.New("embedding service unavailable")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := s.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = []float32{0.1, 0.1, 0.1}
		}
	}
	return out, nil
}

func newTestEmbedder() *stubEmbedder {
	return &stubEmbedder{vectors: map[string][]float32{
		"dogs are great":     {1, 0, 0},
		"i love my puppy":    {0.9, 0.1, 0},
		"stock market crash": {0, 1, 0},
		"puppy":              {0.95, 0.05, 0},
	}}
}

func TestIndexIsEmptyUntilAdd(t *testing.T) {
	ix := NewSemanticIndex(newTestEmbedder())
	if !ix.IsEmpty() {
		t.Fatalf("new index should be empty")
	}
	if err := ix.Add(context.Background(), "dogs are great"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if ix.IsEmpty() {
		t.Fatalf("index should not be empty after Add")
	}
	if ix.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", ix.Len())
	}
}

func TestIndexSearchRanksByCosineSimilarity(t *testing.T) {
	ix := NewSemanticIndex(newTestEmbedder())
	ctx := context.Background()
	for _, text := range []string{"stock market crash", "dogs are great", "i love my puppy"} {
		if err := ix.Add(ctx, text); err != nil {
			t.Fatalf("Add(%q) error = %v", text, err)
		}
	}

	got, err := ix.Search(ctx, "puppy", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	want := []string{"dogs are great", "i love my puppy"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Search() = %v, want %v", got, want)
	}
}

func TestIndexSearchEmptyQueryAndEmptyIndex(t *testing.T) {
	ix := NewSemanticIndex(newTestEmbedder())
	ctx := context.Background()

	if got, err := ix.Search(ctx, "", 3); err != nil || got != nil {
		t.Fatalf("Search(empty query) = %v, %v, want nil, nil", got, err)
	}
	if got, err := ix.Search(ctx, "puppy", 3); err != nil || got != nil {
		t.Fatalf("Search(empty index) = %v, %v, want nil, nil", got, err)
	}
}

func TestIndexRebuildReplacesContents(t *testing.T) {
	ix := NewSemanticIndex(newTestEmbedder())
	ctx := context.Background()
	_ = ix.Add(ctx, "stock market crash")

	if err := ix.Rebuild(ctx, []string{"dogs are great", "i love my puppy"}); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if ix.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ix.Len())
	}

	if err := ix.Rebuild(ctx, nil); err != nil {
		t.Fatalf("Rebuild(nil) error = %v", err)
	}
	if !ix.IsEmpty() {
		t.Fatalf("index should be empty after Rebuild(nil)")
	}
}

func TestIndexSearchPropagatesEmbedderFailure(t *testing.T) {
	emb := newTestEmbedder()
	ix := NewSemanticIndex(emb)
	ctx := context.Background()
	_ = ix.Add(ctx, "dogs are great")

	emb.fail = true
	if _, err := ix.Search(ctx, "puppy", 3); err == nil {
		t.Fatalf("Search() should surface embedder failure")
	}
}
