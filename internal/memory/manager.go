package memory

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mirrorme/mirrord/internal/profile"
)

// Manager is the conversational memory store for a single user: the ordered
// message log, the live personality profile, and the semantic index over
// user-authored messages. Persistence is synchronous and best-effort; a
// failed write is logged and in-memory state stays authoritative for the
// rest of the process.
type Manager struct {
	mu       sync.RWMutex
	userID   string
	store    SnapshotStore
	index    *SemanticIndex
	maxItems int

	messages []Message
	prof     profile.Profile
}

// NewManager loads the persisted snapshot for userID and rebuilds the
// semantic index from its user messages. Corrupt or missing state starts
// empty.
func NewManager(ctx context.Context, userID string, store SnapshotStore, embedder Embedder, maxItems int) *Manager {
	if maxItems <= 0 {
		maxItems = 1000
	}
	m := &Manager{
		userID:   userID,
		store:    store,
		index:    NewSemanticIndex(embedder),
		maxItems: maxItems,
		prof:     profile.Default(),
	}

	snap, err := store.Load(ctx, userID)
	if err != nil {
		log.Printf("load memory for %q failed, starting empty: %v", userID, err)
	} else {
		m.messages = append([]Message(nil), snap.Messages...)
		if snap.Profile.Updated() {
			m.prof = snap.Profile
		}
	}

	if texts := userTexts(m.messages, 0); len(texts) > 0 {
		if err := m.index.Rebuild(ctx, texts); err != nil {
			log.Printf("semantic index rebuild for %q failed: %v", userID, err)
		}
	}
	return m
}

// Append records a message with the current timestamp, evicts oldest
// messages past the cap, persists the log, and indexes user-authored text.
func (m *Manager) Append(ctx context.Context, role Role, content string, metadata map[string]any) Message {
	msg := Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata:  metadata,
	}

	m.mu.Lock()
	m.messages = append(m.messages, msg)
	if len(m.messages) > m.maxItems {
		evicted := len(m.messages) - m.maxItems
		m.messages = append([]Message(nil), m.messages[evicted:]...)
	}
	m.persistLocked(ctx)
	m.mu.Unlock()

	if role == RoleUser {
		if err := m.index.Add(ctx, content); err != nil {
			log.Printf("index user message for %q failed: %v", m.userID, err)
		}
	}
	return msg
}

// SimilarUserMessages returns up to k past user message texts semantically
// nearest to query. Blank queries, an empty index, and retrieval failures
// all yield an empty result.
func (m *Manager) SimilarUserMessages(ctx context.Context, query string, k int) []string {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if m.index.IsEmpty() {
		return nil
	}
	results, err := m.index.Search(ctx, strings.TrimSpace(query), k)
	if err != nil {
		log.Printf("similarity search for %q failed: %v", m.userID, err)
		return nil
	}
	return results
}

// RecentContext returns the last limit messages in insertion order.
func (m *Manager) RecentContext(limit int) []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || len(m.messages) == 0 {
		return nil
	}
	if limit > len(m.messages) {
		limit = len(m.messages)
	}
	out := make([]Message, limit)
	copy(out, m.messages[len(m.messages)-limit:])
	return out
}

// UserMessageCount is the sole driver for analysis cadence.
func (m *Manager) UserMessageCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, msg := range m.messages {
		if msg.Role == RoleUser {
			n++
		}
	}
	return n
}

// Profile returns a copy of the live personality profile.
func (m *Manager) Profile() profile.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.prof.Clone()
}

// MergeProfile applies a validated profile delta, stamps last_updated, and
// persists. It returns the names of rejected sections.
func (m *Manager) MergeProfile(ctx context.Context, delta profile.Delta) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	rejected := profile.Merge(&m.prof, delta, time.Now())
	if len(rejected) > 0 {
		log.Printf("profile merge for %q rejected sections: %s", m.userID, strings.Join(rejected, ", "))
	}
	m.persistLocked(ctx)
	return rejected
}

// MessagesForAnalysis returns the most recent limit user message texts,
// oldest first within the window.
func (m *Manager) MessagesForAnalysis(limit int) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return userTexts(m.messages, limit)
}

// Reset clears all messages and the profile, empties the semantic index,
// and persists the cleared state.
func (m *Manager) Reset(ctx context.Context) {
	m.mu.Lock()
	m.messages = nil
	m.prof = profile.Default()
	m.persistLocked(ctx)
	m.mu.Unlock()

	if err := m.index.Rebuild(ctx, nil); err != nil {
		log.Printf("semantic index reset for %q failed: %v", m.userID, err)
	}
}

// Export returns a full-state snapshot stamped with the export time. It
// never mutates the store.
func (m *Manager) Export() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := make([]Message, len(m.messages))
	copy(msgs, m.messages)
	return Snapshot{
		Messages:   msgs,
		Profile:    m.prof.Clone(),
		ExportedAt: time.Now().UTC(),
	}
}

// Import replaces the store state with a previously exported snapshot and
// rebuilds the semantic index from its user messages.
func (m *Manager) Import(ctx context.Context, snap Snapshot) {
	m.mu.Lock()
	m.messages = append([]Message(nil), snap.Messages...)
	if len(m.messages) > m.maxItems {
		m.messages = append([]Message(nil), m.messages[len(m.messages)-m.maxItems:]...)
	}
	if snap.Profile.Updated() {
		m.prof = snap.Profile.Clone()
	} else {
		m.prof = profile.Default()
	}
	m.persistLocked(ctx)
	texts := userTexts(m.messages, 0)
	m.mu.Unlock()

	if err := m.index.Rebuild(ctx, texts); err != nil {
		log.Printf("semantic index rebuild after import for %q failed: %v", m.userID, err)
	}
}

// persistLocked writes the current snapshot. Callers hold m.mu. Write
// failures are logged, never propagated: durability is lost for that write
// but in-memory state remains correct.
func (m *Manager) persistLocked(ctx context.Context) {
	snap := Snapshot{
		Messages: m.messages,
		Profile:  m.prof,
	}
	if err := m.store.Save(ctx, m.userID, snap); err != nil {
		log.Printf("persist memory for %q failed: %v", m.userID, err)
	}
}

// userTexts extracts user message contents; limit 0 means all, otherwise
// the most recent limit texts oldest-first.
func userTexts(messages []Message, limit int) []string {
	texts := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleUser {
			texts = append(texts, msg.Content)
		}
	}
	if limit > 0 && len(texts) > limit {
		texts = texts[len(texts)-limit:]
	}
	return texts
}
