package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// FileSnapshotStore keeps one JSON document per user under a base directory.
// Writes are whole-file overwrites: last successful write wins, with no
// partial-write recovery beyond that.
type FileSnapshotStore struct {
	baseDir string
}

func NewFileSnapshotStore(baseDir string) *FileSnapshotStore {
	return &FileSnapshotStore{baseDir: baseDir}
}

func (s *FileSnapshotStore) path(userID string) string {
	return filepath.Join(s.baseDir, sanitizeUserID(userID)+".json")
}

func (s *FileSnapshotStore) Load(_ context.Context, userID string) (Snapshot, error) {
	data, err := os.ReadFile(s.path(userID))
	if os.IsNotExist(err) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// Corrupt state is treated as absence rather than failing startup.
		log.Printf("snapshot for %q is corrupt, starting empty: %v", userID, err)
		return Snapshot{}, nil
	}
	return snap, nil
}

func (s *FileSnapshotStore) Save(_ context.Context, userID string, snap Snapshot) error {
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(s.path(userID), data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func (s *FileSnapshotStore) Close() error { return nil }

// sanitizeUserID keeps file names flat so a crafted user id cannot escape
// the data directory.
func sanitizeUserID(userID string) string {
	out := make([]rune, 0, len(userID))
	for _, r := range userID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "default"
	}
	return string(out)
}
