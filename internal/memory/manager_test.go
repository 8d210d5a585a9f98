package memory

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mirrorme/mirrord/internal/profile"
)

func newTestManager(t *testing.T, maxItems int) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	store := NewFileSnapshotStore(dir)
	m := NewManager(context.Background(), "u1", store, newTestEmbedder(), maxItems)
	return m, dir
}

func TestAppendAndRecentContextOrder(t *testing.T) {
	m, _ := newTestManager(t, 100)
	ctx := context.Background()

	m.Append(ctx, RoleUser, "hello", nil)
	m.Append(ctx, RoleAssistant, "hi", nil)

	got := m.RecentContext(2)
	if len(got) != 2 || got[0].Content != "hello" || got[1].Content != "hi" {
		t.Fatalf("RecentContext(2) = %+v, want hello then hi", got)
	}

	one := m.RecentContext(1)
	if len(one) != 1 || one[0].Role != RoleAssistant {
		t.Fatalf("RecentContext(1) = %+v, want only the assistant turn", one)
	}
}

func TestUserMessageCountIgnoresAssistantTurns(t *testing.T) {
	m, _ := newTestManager(t, 100)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		m.Append(ctx, RoleUser, "u", nil)
	}
	for i := 0; i < 5; i++ {
		m.Append(ctx, RoleAssistant, "a", nil)
	}
	if got := m.UserMessageCount(); got != 3 {
		t.Fatalf("UserMessageCount() = %d, want 3", got)
	}
}

func TestAppendEvictsOldestPastCap(t *testing.T) {
	m, _ := newTestManager(t, 3)
	ctx := context.Background()

	for _, s := range []string{"a", "b", "c", "d", "e"} {
		m.Append(ctx, RoleUser, s, nil)
	}

	got := m.RecentContext(10)
	contents := make([]string, len(got))
	for i, msg := range got {
		contents[i] = msg.Content
	}
	if !reflect.DeepEqual(contents, []string{"c", "d", "e"}) {
		t.Fatalf("messages after eviction = %v, want [c d e]", contents)
	}
}

func TestSimilarUserMessagesBlankQuery(t *testing.T) {
	m, _ := newTestManager(t, 100)
	ctx := context.Background()
	m.Append(ctx, RoleUser, "dogs are great", nil)

	if got := m.SimilarUserMessages(ctx, "", 3); got != nil {
		t.Fatalf("blank query should return nil, got %v", got)
	}
	if got := m.SimilarUserMessages(ctx, "   ", 3); got != nil {
		t.Fatalf("whitespace query should return nil, got %v", got)
	}
}

func TestSimilarUserMessagesReturnsNearestUserTexts(t *testing.T) {
	m, _ := newTestManager(t, 100)
	ctx := context.Background()
	m.Append(ctx, RoleUser, "dogs are great", nil)
	m.Append(ctx, RoleAssistant, "stock market crash", nil) // never indexed
	m.Append(ctx, RoleUser, "i love my puppy", nil)

	got := m.SimilarUserMessages(ctx, "puppy", 2)
	want := []string{"dogs are great", "i love my puppy"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SimilarUserMessages = %v, want %v", got, want)
	}
}

func TestSimilarUserMessagesSwallowsRetrievalFailure(t *testing.T) {
	dir := t.TempDir()
	emb := newTestEmbedder()
	m := NewManager(context.Background(), "u1", NewFileSnapshotStore(dir), emb, 100)
	ctx := context.Background()
	m.Append(ctx, RoleUser, "dogs are great", nil)

	emb.fail = true
	if got := m.SimilarUserMessages(ctx, "puppy", 3); got != nil {
		t.Fatalf("retrieval failure should return nil, got %v", got)
	}
}

func TestMessagesForAnalysisWindow(t *testing.T) {
	m, _ := newTestManager(t, 100)
	ctx := context.Background()
	for _, s := range []string{"one", "two", "three", "four"} {
		m.Append(ctx, RoleUser, s, nil)
		m.Append(ctx, RoleAssistant, "ack", nil)
	}

	got := m.MessagesForAnalysis(3)
	if !reflect.DeepEqual(got, []string{"two", "three", "four"}) {
		t.Fatalf("MessagesForAnalysis(3) = %v, want oldest-first window", got)
	}
}

func TestResetClearsEverything(t *testing.T) {
	m, _ := newTestManager(t, 100)
	ctx := context.Background()
	m.Append(ctx, RoleUser, "dogs are great", nil)
	m.MergeProfile(ctx, profile.Delta{PersonalityTraits: &profile.TraitScores{Openness: 8, Conscientiousness: 8, Extraversion: 8, Agreeableness: 8, Neuroticism: 8}})

	m.Reset(ctx)

	if got := m.UserMessageCount(); got != 0 {
		t.Fatalf("UserMessageCount after reset = %d, want 0", got)
	}
	p := m.Profile()
	if p.PersonalityTraits != (profile.TraitScores{Openness: 5, Conscientiousness: 5, Extraversion: 5, Agreeableness: 5, Neuroticism: 5}) || p.Updated() {
		t.Fatalf("profile after reset = %+v, want defaults", p)
	}
	if got := m.SimilarUserMessages(ctx, "puppy", 3); got != nil {
		t.Fatalf("index should be empty after reset, got %v", got)
	}
}

func TestExportIsIdempotentAndNonMutating(t *testing.T) {
	m, _ := newTestManager(t, 100)
	ctx := context.Background()
	m.Append(ctx, RoleUser, "hello", nil)
	m.Append(ctx, RoleAssistant, "hi", nil)

	first := m.Export()
	second := m.Export()
	if !reflect.DeepEqual(first.Messages, second.Messages) {
		t.Fatalf("export messages differ between calls")
	}
	first.Profile.LastUpdated = second.Profile.LastUpdated
	if !reflect.DeepEqual(first.Profile, second.Profile) {
		t.Fatalf("export profiles differ between calls")
	}
	if second.ExportedAt.IsZero() {
		t.Fatalf("export timestamp should be set")
	}
}

func TestImportIsDualOfExport(t *testing.T) {
	m, _ := newTestManager(t, 100)
	ctx := context.Background()
	m.Append(ctx, RoleUser, "dogs are great", nil)
	m.MergeProfile(ctx, profile.Delta{PersonalityTraits: &profile.TraitScores{Openness: 7, Conscientiousness: 7, Extraversion: 7, Agreeableness: 7, Neuroticism: 7}})
	snap := m.Export()

	fresh, _ := newTestManager(t, 100)
	fresh.Import(ctx, snap)

	if got := fresh.UserMessageCount(); got != 1 {
		t.Fatalf("UserMessageCount after import = %d, want 1", got)
	}
	if fresh.Profile().PersonalityTraits.Openness != 7 {
		t.Fatalf("profile not restored: %+v", fresh.Profile().PersonalityTraits)
	}
	got := fresh.SimilarUserMessages(ctx, "puppy", 1)
	if !reflect.DeepEqual(got, []string{"dogs are great"}) {
		t.Fatalf("index not rebuilt from import: %v", got)
	}
}

func TestManagerReloadsPersistedState(t *testing.T) {
	dir := t.TempDir()
	store := NewFileSnapshotStore(dir)
	ctx := context.Background()

	m := NewManager(ctx, "u1", store, newTestEmbedder(), 100)
	m.Append(ctx, RoleUser, "dogs are great", nil)
	m.Append(ctx, RoleAssistant, "nice", nil)

	reloaded := NewManager(ctx, "u1", store, newTestEmbedder(), 100)
	if got := reloaded.UserMessageCount(); got != 1 {
		t.Fatalf("UserMessageCount after reload = %d, want 1", got)
	}
	got := reloaded.SimilarUserMessages(ctx, "puppy", 1)
	if !reflect.DeepEqual(got, []string{"dogs are great"}) {
		t.Fatalf("index not rebuilt on startup: %v", got)
	}
}

func TestManagerTreatsCorruptSnapshotAsAbsent(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "u1.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	m := NewManager(context.Background(), "u1", NewFileSnapshotStore(dir), newTestEmbedder(), 100)
	if got := m.UserMessageCount(); got != 0 {
		t.Fatalf("corrupt snapshot should start empty, count = %d", got)
	}
}
