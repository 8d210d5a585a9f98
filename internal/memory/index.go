package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
)

// Embedder turns texts into vectors for similarity search.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type indexEntry struct {
	text string
	vec  []float32
}

// SemanticIndex is an in-process nearest-neighbor index over user message
// embeddings. It is rebuilt from the persisted log at startup and extended
// incrementally on each new user message. Callers branch on IsEmpty rather
// than relying on a seeded placeholder document.
type SemanticIndex struct {
	mu       sync.RWMutex
	embedder Embedder
	entries  []indexEntry
}

func NewSemanticIndex(embedder Embedder) *SemanticIndex {
	return &SemanticIndex{embedder: embedder}
}

// IsEmpty reports whether the index holds no documents.
func (ix *SemanticIndex) IsEmpty() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries) == 0
}

// Len returns the number of indexed documents.
func (ix *SemanticIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Add embeds one text and appends it to the index.
func (ix *SemanticIndex) Add(ctx context.Context, text string) error {
	vecs, err := ix.embedder.Embed(ctx, []string{text})
	if err != nil {
		return fmt.Errorf("embed document: %w", err)
	}
	if len(vecs) != 1 {
		return fmt.Errorf("embedder returned %d vectors for one document", len(vecs))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.entries = append(ix.entries, indexEntry{text: text, vec: vecs[0]})
	return nil
}

// Rebuild replaces the index contents with the given texts in one batch
// embedding call. An empty input clears the index.
func (ix *SemanticIndex) Rebuild(ctx context.Context, texts []string) error {
	if len(texts) == 0 {
		ix.mu.Lock()
		ix.entries = nil
		ix.mu.Unlock()
		return nil
	}

	vecs, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}
	if len(vecs) != len(texts) {
		return fmt.Errorf("embedder returned %d vectors for %d documents", len(vecs), len(texts))
	}

	entries := make([]indexEntry, len(texts))
	for i, t := range texts {
		entries[i] = indexEntry{text: t, vec: vecs[i]}
	}

	ix.mu.Lock()
	ix.entries = entries
	ix.mu.Unlock()
	return nil
}

// Search returns up to k stored texts nearest to the query by cosine
// similarity, most similar first.
func (ix *SemanticIndex) Search(ctx context.Context, query string, k int) ([]string, error) {
	if strings.TrimSpace(query) == "" || k <= 0 {
		return nil, nil
	}
	if ix.IsEmpty() {
		return nil, nil
	}

	vecs, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for query", len(vecs))
	}
	qv := vecs[0]

	ix.mu.RLock()
	type scored struct {
		text  string
		score float64
	}
	results := make([]scored, 0, len(ix.entries))
	for _, e := range ix.entries {
		results = append(results, scored{text: e.text, score: cosineSimilarity(qv, e.vec)})
	}
	ix.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })
	if len(results) > k {
		results = results[:k]
	}

	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.text
	}
	return out, nil
}

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
