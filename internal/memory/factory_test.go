package memory

import (
	"context"
	"testing"
)

func TestNewSnapshotStoreFileModes(t *testing.T) {
	ctx := context.Background()

	store, mode, err := NewSnapshotStore(ctx, StoreConfig{Mode: "file", DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("file mode error = %v", err)
	}
	defer store.Close()
	if mode != "file" {
		t.Fatalf("mode = %q, want %q", mode, "file")
	}
	if _, ok := store.(*FileSnapshotStore); !ok {
		t.Fatalf("store type = %T, want *FileSnapshotStore", store)
	}

	autoStore, autoMode, err := NewSnapshotStore(ctx, StoreConfig{Mode: "auto", DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("auto mode error = %v", err)
	}
	defer autoStore.Close()
	if autoMode != "file" {
		t.Fatalf("auto without urls resolved to %q, want %q", autoMode, "file")
	}
}

func TestNewSnapshotStoreMissingURLs(t *testing.T) {
	ctx := context.Background()

	if _, _, err := NewSnapshotStore(ctx, StoreConfig{Mode: "postgres"}); err == nil {
		t.Fatalf("expected error for postgres mode without DATABASE_URL")
	}
	if _, _, err := NewSnapshotStore(ctx, StoreConfig{Mode: "redis"}); err == nil {
		t.Fatalf("expected error for redis mode without REDIS_URL")
	}
	if _, _, err := NewSnapshotStore(ctx, StoreConfig{Mode: "bogus"}); err == nil {
		t.Fatalf("expected error for unsupported mode")
	}
}
