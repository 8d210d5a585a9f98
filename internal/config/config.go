package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains all runtime settings for the mirror chat service.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool

	OpenAIAPIKey   string
	OpenAIBaseURL  string
	ChatModel      string
	Temperature    float64
	MaxTokens      int
	EmbeddingModel string
	RequestTimeout time.Duration

	// Personality analysis runs with a lower temperature than generation so
	// the structured output stays parseable.
	AnalysisTemperature    float64
	AnalysisFrequency      int
	MinMessagesForAnalysis int
	AnalysisWindow         int

	MaxMemoryItems      int
	SimilarityK         int
	RecentContextWindow int

	StoreMode   string
	DataDir     string
	DatabaseURL string
	RedisURL    string
}

// Load reads environment variables and applies safe defaults.
// A .env file in the working directory is honored when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		BindAddr:                 envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:         envOrDefault("APP_METRICS_NAMESPACE", "mirrord"),
		AllowAnyOrigin:           false,
		OpenAIAPIKey:             trimmedEnv("OPENAI_API_KEY"),
		OpenAIBaseURL:            envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		ChatModel:                envOrDefault("MODEL_NAME", "gpt-3.5-turbo"),
		Temperature:              0.7,
		MaxTokens:                150,
		EmbeddingModel:           envOrDefault("EMBEDDING_MODEL", "text-embedding-3-small"),
		AnalysisTemperature:      0.3,
		AnalysisFrequency:        10,
		MinMessagesForAnalysis:   5,
		AnalysisWindow:           50,
		MaxMemoryItems:           1000,
		SimilarityK:              3,
		RecentContextWindow:      6,
		StoreMode:                envOrDefault("STORE_MODE", "auto"),
		DataDir:                  envOrDefault("DATA_DIR", "data"),
		DatabaseURL:              trimmedEnv("DATABASE_URL"),
		RedisURL:                 trimmedEnv("REDIS_URL"),
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 30 * time.Minute,
		RequestTimeout:           30 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.RequestTimeout, err = durationFromEnv("LLM_REQUEST_TIMEOUT", cfg.RequestTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.Temperature, err = floatFromEnv("MODEL_TEMPERATURE", cfg.Temperature)
	if err != nil {
		return Config{}, err
	}
	cfg.AnalysisTemperature, err = floatFromEnv("ANALYSIS_TEMPERATURE", cfg.AnalysisTemperature)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxTokens, err = intFromEnv("MODEL_MAX_TOKENS", cfg.MaxTokens)
	if err != nil {
		return Config{}, err
	}
	cfg.AnalysisFrequency, err = intFromEnv("ANALYSIS_FREQUENCY", cfg.AnalysisFrequency)
	if err != nil {
		return Config{}, err
	}
	cfg.MinMessagesForAnalysis, err = intFromEnv("MIN_MESSAGES_FOR_ANALYSIS", cfg.MinMessagesForAnalysis)
	if err != nil {
		return Config{}, err
	}
	cfg.AnalysisWindow, err = intFromEnv("ANALYSIS_WINDOW", cfg.AnalysisWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxMemoryItems, err = intFromEnv("MEMORY_MAX_ITEMS", cfg.MaxMemoryItems)
	if err != nil {
		return Config{}, err
	}
	cfg.SimilarityK, err = intFromEnv("MEMORY_SIMILARITY_K", cfg.SimilarityK)
	if err != nil {
		return Config{}, err
	}
	cfg.RecentContextWindow, err = intFromEnv("RECENT_CONTEXT_WINDOW", cfg.RecentContextWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.AnalysisFrequency <= 0 {
		return Config{}, fmt.Errorf("ANALYSIS_FREQUENCY must be positive")
	}
	if cfg.MinMessagesForAnalysis <= 0 {
		return Config{}, fmt.Errorf("MIN_MESSAGES_FOR_ANALYSIS must be positive")
	}
	if cfg.AnalysisWindow <= 0 {
		return Config{}, fmt.Errorf("ANALYSIS_WINDOW must be positive")
	}
	if cfg.MaxMemoryItems <= 0 {
		return Config{}, fmt.Errorf("MEMORY_MAX_ITEMS must be positive")
	}
	if cfg.SimilarityK <= 0 {
		return Config{}, fmt.Errorf("MEMORY_SIMILARITY_K must be positive")
	}
	if cfg.RecentContextWindow <= 0 {
		return Config{}, fmt.Errorf("RECENT_CONTEXT_WINDOW must be positive")
	}
	if cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("LLM_REQUEST_TIMEOUT must be positive")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.StoreMode)) {
	case "auto", "file", "postgres", "redis":
	default:
		return Config{}, fmt.Errorf("invalid STORE_MODE: %q (expected auto|file|postgres|redis)", cfg.StoreMode)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func floatFromEnv(key string, fallback float64) (float64, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return f, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
