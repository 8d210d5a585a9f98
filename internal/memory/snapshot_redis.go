package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

const redisSnapshotPrefix = "mirror:snapshot:"

// RedisSnapshotStore persists snapshots in Redis, one key per user.
type RedisSnapshotStore struct {
	client *redis.Client
}

func NewRedisSnapshotStore(ctx context.Context, redisURL string) (*RedisSnapshotStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return &RedisSnapshotStore{client: client}, nil
}

func (s *RedisSnapshotStore) key(userID string) string {
	return redisSnapshotPrefix + userID
}

func (s *RedisSnapshotStore) Load(ctx context.Context, userID string) (Snapshot, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		log.Printf("snapshot key for %q is corrupt, starting empty: %v", userID, err)
		return Snapshot{}, nil
	}
	return snap, nil
}

func (s *RedisSnapshotStore) Save(ctx context.Context, userID string, snap Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key(userID), raw, 0).Err(); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}
	return nil
}

func (s *RedisSnapshotStore) Close() error {
	return s.client.Close()
}
