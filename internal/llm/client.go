package llm

import (
	"context"
	"fmt"
	"strings"
)

// CompletionRequest is a single-shot text generation request.
type CompletionRequest struct {
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Client bridges the mirror runtime with a completion/embedding provider.
// Both calls are single-attempt and bounded by the client's timeout; callers
// treat any error as an ordinary turn-level failure.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ProviderError carries enough context to classify an upstream failure
// without exposing provider internals to callers.
type ProviderError struct {
	Provider  string
	Status    int
	Retryable bool
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// New returns an OpenAI-compatible client when an API key is configured,
// otherwise a deterministic mock so the service stays usable offline.
func New(opts OpenAIOptions) Client {
	if strings.TrimSpace(opts.APIKey) == "" {
		return NewMockClient()
	}
	return NewOpenAIClient(opts)
}
