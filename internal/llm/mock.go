package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
)

const mockEmbeddingDim = 64

// MockClient provides deterministic local responses when no provider key is
// configured. Embeddings hash token occurrences into a fixed-size vector so
// similarity search still behaves sensibly offline.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	lines := strings.Split(strings.TrimSpace(req.Prompt), "\n")
	last := ""
	for i := len(lines) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(lines[i]); s != "" {
			last = s
			break
		}
	}
	if last == "" {
		return "I am listening.", nil
	}
	return fmt.Sprintf("I hear you: %s", last), nil
}

func (c *MockClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashEmbedding(t)
	}
	return out, nil
}

func hashEmbedding(text string) []float32 {
	vec := make([]float32, mockEmbeddingDim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%mockEmbeddingDim]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
