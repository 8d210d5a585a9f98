package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mirrorme/mirrord/internal/reliability"
)

// OpenAIOptions configures the OpenAI-compatible HTTP client.
type OpenAIOptions struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	RequestTimeout time.Duration
}

// OpenAIClient talks to an OpenAI-compatible completion/embedding endpoint.
// Every call is one attempt wrapped in the configured timeout; there is no
// retry policy here because the orchestrator degrades gracefully instead.
type OpenAIClient struct {
	opts   OpenAIOptions
	client *http.Client
}

func NewOpenAIClient(opts OpenAIOptions) *OpenAIClient {
	if strings.TrimSpace(opts.BaseURL) == "" {
		opts.BaseURL = "https://api.openai.com/v1"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.ChatModel == "" {
		opts.ChatModel = "gpt-3.5-turbo"
	}
	if opts.EmbeddingModel == "" {
		opts.EmbeddingModel = "text-embedding-3-small"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	return &OpenAIClient{
		opts: opts,
		client: &http.Client{
			Timeout: opts.RequestTimeout,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	payload := chatCompletionRequest{
		Model:       c.opts.ChatModel,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	body, err := c.post(ctx, "/chat/completions", payload)
	if err != nil {
		return "", err
	}

	var res chatCompletionResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", &ProviderError{Provider: "openai", Err: fmt.Errorf("decode completion: %w", err)}
	}
	if len(res.Choices) == 0 {
		return "", &ProviderError{Provider: "openai", Err: errors.New("completion returned no choices")}
	}
	return strings.TrimSpace(res.Choices[0].Message.Content), nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := c.post(ctx, "/embeddings", embeddingRequest{
		Model: c.opts.EmbeddingModel,
		Input: texts,
	})
	if err != nil {
		return nil, err
	}

	var res embeddingResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, &ProviderError{Provider: "openai", Err: fmt.Errorf("decode embeddings: %w", err)}
	}
	if len(res.Data) != len(texts) {
		return nil, &ProviderError{Provider: "openai", Err: fmt.Errorf("embeddings count %d does not match input %d", len(res.Data), len(texts))}
	}

	out := make([][]float32, len(res.Data))
	for i, d := range res.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

func (c *OpenAIClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &ProviderError{Provider: "openai", Err: fmt.Errorf("marshal request: %w", err)}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.opts.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, &ProviderError{Provider: "openai", Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: "openai", Retryable: true, Err: fmt.Errorf("send request: %w", err)}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, &ProviderError{Provider: "openai", Retryable: true, Err: fmt.Errorf("read response: %w", err)}
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &ProviderError{
			Provider:  "openai",
			Status:    res.StatusCode,
			Retryable: reliability.IsRetryableHTTPStatus(res.StatusCode),
			Err:       fmt.Errorf("%s", truncate(string(body), 512)),
		}
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
