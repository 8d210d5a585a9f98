package memory

import (
	"context"
	"time"

	"github.com/mirrorme/mirrord/internal/profile"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversational turn. Messages are immutable once
// appended; insertion order defines recent context.
type Message struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Snapshot is the durable aggregate for one user: the full message log plus
// the live personality profile. The same shape doubles as the export/import
// format, with ExportedAt stamped on export.
type Snapshot struct {
	Messages   []Message       `json:"messages"`
	Profile    profile.Profile `json:"profile"`
	ExportedAt time.Time       `json:"export_timestamp"`
}

// SnapshotStore persists per-user snapshots. Load treats a missing or
// corrupt record as absence and returns an empty snapshot; only transport
// level failures surface as errors.
type SnapshotStore interface {
	Load(ctx context.Context, userID string) (Snapshot, error)
	Save(ctx context.Context, userID string, snap Snapshot) error
	Close() error
}
