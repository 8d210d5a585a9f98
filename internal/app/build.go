package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mirrorme/mirrord/internal/analysis"
	"github.com/mirrorme/mirrord/internal/config"
	"github.com/mirrorme/mirrord/internal/httpapi"
	"github.com/mirrorme/mirrord/internal/llm"
	"github.com/mirrorme/mirrord/internal/memory"
	"github.com/mirrorme/mirrord/internal/mirror"
	"github.com/mirrorme/mirrord/internal/observability"
	"github.com/mirrorme/mirrord/internal/session"
)

// BuildResult holds the wired service graph.
type BuildResult struct {
	Config   config.Config
	API      *httpapi.Server
	Sessions *session.Registry
	Metrics  *observability.Metrics

	// Cleanup should be called on shutdown to release external resources
	// (DB pools, redis connections).
	Cleanup func() error
}

// Build wires the full service: snapshot store, LLM client, analyzer,
// per-user agent factory, session registry, and HTTP API.
func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	store, storeMode, err := memory.NewSnapshotStore(ctx, memory.StoreConfig{
		Mode:        cfg.StoreMode,
		DataDir:     cfg.DataDir,
		DatabaseURL: cfg.DatabaseURL,
		RedisURL:    cfg.RedisURL,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot store init failed: %w", err)
	}
	// Handlers report the resolved backend, not the requested mode.
	cfg.StoreMode = storeMode
	log.Printf("snapshot store: %s", storeMode)

	client := llm.New(llm.OpenAIOptions{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		ChatModel:      cfg.ChatModel,
		EmbeddingModel: cfg.EmbeddingModel,
		RequestTimeout: cfg.RequestTimeout,
	})
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		log.Printf("llm provider: mock (OPENAI_API_KEY is not set)")
	} else {
		log.Printf("llm provider: openai (%s)", cfg.ChatModel)
	}

	analyzer := analysis.NewAnalyzer(client, cfg.AnalysisTemperature)
	factory := func(ctx context.Context, userID string) *mirror.Agent {
		mem := memory.NewManager(ctx, userID, store, client, cfg.MaxMemoryItems)
		return mirror.NewAgent(mirror.Config{
			AnalysisFrequency:      cfg.AnalysisFrequency,
			MinMessagesForAnalysis: cfg.MinMessagesForAnalysis,
			AnalysisWindow:         cfg.AnalysisWindow,
			SimilarityK:            cfg.SimilarityK,
			RecentContextWindow:    cfg.RecentContextWindow,
			Temperature:            cfg.Temperature,
			MaxTokens:              cfg.MaxTokens,
			ObserveStage:           metrics.ObserveStage,
		}, mem, analyzer, client)
	}

	sessions := session.NewRegistry(factory, cfg.SessionInactivityTimeout)
	api := httpapi.New(cfg, sessions, metrics)

	return &BuildResult{
		Config:   cfg,
		API:      api,
		Sessions: sessions,
		Metrics:  metrics,
		Cleanup:  store.Close,
	}, nil
}
