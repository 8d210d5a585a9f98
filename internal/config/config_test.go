package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.ChatModel != "gpt-3.5-turbo" {
		t.Fatalf("ChatModel = %q, want %q", cfg.ChatModel, "gpt-3.5-turbo")
	}
	if cfg.MaxMemoryItems != 1000 {
		t.Fatalf("MaxMemoryItems = %d, want 1000", cfg.MaxMemoryItems)
	}
	if cfg.AnalysisFrequency != 10 {
		t.Fatalf("AnalysisFrequency = %d, want 10", cfg.AnalysisFrequency)
	}
	if cfg.MinMessagesForAnalysis != 5 {
		t.Fatalf("MinMessagesForAnalysis = %d, want 5", cfg.MinMessagesForAnalysis)
	}
	if cfg.Temperature != 0.7 {
		t.Fatalf("Temperature = %v, want 0.7", cfg.Temperature)
	}
	if cfg.AnalysisTemperature != 0.3 {
		t.Fatalf("AnalysisTemperature = %v, want 0.3", cfg.AnalysisTemperature)
	}
	if cfg.MaxTokens != 150 {
		t.Fatalf("MaxTokens = %d, want 150", cfg.MaxTokens)
	}
	if cfg.StoreMode != "auto" {
		t.Fatalf("StoreMode = %q, want %q", cfg.StoreMode, "auto")
	}
}

func TestLoadOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_BIND_ADDR", ":9090")
	t.Setenv("MODEL_NAME", "gpt-4o-mini")
	t.Setenv("MEMORY_MAX_ITEMS", "50")
	t.Setenv("LLM_REQUEST_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":9090" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":9090")
	}
	if cfg.ChatModel != "gpt-4o-mini" {
		t.Fatalf("ChatModel = %q, want %q", cfg.ChatModel, "gpt-4o-mini")
	}
	if cfg.MaxMemoryItems != 50 {
		t.Fatalf("MaxMemoryItems = %d, want 50", cfg.MaxMemoryItems)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Fatalf("RequestTimeout = %v, want 5s", cfg.RequestTimeout)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"zero frequency", "ANALYSIS_FREQUENCY", "0"},
		{"negative cap", "MEMORY_MAX_ITEMS", "-1"},
		{"bad store mode", "STORE_MODE", "dynamo"},
		{"bad int", "MEMORY_SIMILARITY_K", "three"},
		{"bad duration", "LLM_REQUEST_TIMEOUT", "soon"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setCoreEnvEmpty(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() with %s=%q should fail", tc.key, tc.value)
			}
		})
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_SESSION_INACTIVITY_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"OPENAI_API_KEY",
		"OPENAI_BASE_URL",
		"MODEL_NAME",
		"MODEL_TEMPERATURE",
		"MODEL_MAX_TOKENS",
		"EMBEDDING_MODEL",
		"LLM_REQUEST_TIMEOUT",
		"ANALYSIS_TEMPERATURE",
		"ANALYSIS_FREQUENCY",
		"MIN_MESSAGES_FOR_ANALYSIS",
		"ANALYSIS_WINDOW",
		"MEMORY_MAX_ITEMS",
		"MEMORY_SIMILARITY_K",
		"RECENT_CONTEXT_WINDOW",
		"STORE_MODE",
		"DATA_DIR",
		"DATABASE_URL",
		"REDIS_URL",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}
