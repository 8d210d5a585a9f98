package memory

import (
	"context"
	"errors"
	"strings"
)

// StoreConfig selects and configures a snapshot backend.
type StoreConfig struct {
	Mode        string
	DataDir     string
	DatabaseURL string
	RedisURL    string
}

// NewSnapshotStore creates the configured backend and reports which one was
// chosen. In auto mode it prefers postgres, then redis, then the local file
// store.
func NewSnapshotStore(ctx context.Context, cfg StoreConfig) (SnapshotStore, string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.DatabaseURL) != "" {
			store, err := NewPostgresSnapshotStore(ctx, cfg.DatabaseURL)
			return store, "postgres", err
		}
		if strings.TrimSpace(cfg.RedisURL) != "" {
			store, err := NewRedisSnapshotStore(ctx, cfg.RedisURL)
			return store, "redis", err
		}
		return NewFileSnapshotStore(cfg.DataDir), "file", nil
	case "file":
		return NewFileSnapshotStore(cfg.DataDir), "file", nil
	case "postgres":
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, "", errors.New("DATABASE_URL is required for postgres store mode")
		}
		store, err := NewPostgresSnapshotStore(ctx, cfg.DatabaseURL)
		return store, "postgres", err
	case "redis":
		if strings.TrimSpace(cfg.RedisURL) == "" {
			return nil, "", errors.New("REDIS_URL is required for redis store mode")
		}
		store, err := NewRedisSnapshotStore(ctx, cfg.RedisURL)
		return store, "redis", err
	default:
		return nil, "", errors.New("unsupported store mode: " + cfg.Mode)
	}
}
