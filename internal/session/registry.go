package session

import (
	"context"
	"sync"
	"time"

	"github.com/mirrorme/mirrord/internal/memory"
	"github.com/mirrorme/mirrord/internal/mirror"
	"github.com/mirrorme/mirrord/internal/profile"
)

// AgentFactory builds the mirror agent for a user the first time their
// session is acquired.
type AgentFactory func(ctx context.Context, userID string) *mirror.Agent

// Session owns one user's agent and serializes turns against it. The
// underlying agent assumes a single thread of control, so every operation
// that can mutate state goes through the session lock.
type Session struct {
	UserID string

	mu             sync.Mutex
	agent          *mirror.Agent
	lastActivityAt time.Time
}

func (s *Session) touch() { s.lastActivityAt = time.Now().UTC() }

// Respond runs one conversation turn. Concurrent calls for the same user
// queue up here rather than racing on the memory store.
func (s *Session) Respond(ctx context.Context, input string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.agent.Respond(ctx, input)
}

func (s *Session) LearningProgress() mirror.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agent.LearningProgress()
}

func (s *Session) Profile() profile.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agent.Profile()
}

func (s *Session) PersonalitySummary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agent.PersonalitySummary()
}

func (s *Session) RecentHistory(limit int) []memory.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agent.RecentHistory(limit)
}

func (s *Session) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.agent.Reset(ctx)
}

func (s *Session) Export() memory.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agent.Export()
}

func (s *Session) Import(ctx context.Context, snap memory.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.agent.Import(ctx, snap)
}

// Registry hands out at most one live session per user identity. Idle
// sessions are dropped by the janitor; their state persists in the snapshot
// store and is reloaded on the next acquire.
type Registry struct {
	mu                sync.Mutex
	sessions          map[string]*Session
	factory           AgentFactory
	inactivityTimeout time.Duration
}

func NewRegistry(factory AgentFactory, inactivityTimeout time.Duration) *Registry {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 30 * time.Minute
	}
	return &Registry{
		sessions:          make(map[string]*Session),
		factory:           factory,
		inactivityTimeout: inactivityTimeout,
	}
}

// Acquire returns the live session for userID, creating it on first use.
func (r *Registry) Acquire(ctx context.Context, userID string) *Session {
	r.mu.Lock()
	if s, ok := r.sessions[userID]; ok {
		s.mu.Lock()
		s.touch()
		s.mu.Unlock()
		r.mu.Unlock()
		return s
	}
	r.mu.Unlock()

	// Build outside the registry lock: agent construction loads persisted
	// state and may hit the network for index rebuilds.
	agent := r.factory(ctx, userID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[userID]; ok {
		return s
	}
	s := &Session{UserID: userID, agent: agent, lastActivityAt: time.Now().UTC()}
	r.sessions[userID] = s
	return s
}

// ActiveCount returns the number of live sessions.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// StartJanitor drops sessions idle past the inactivity timeout.
func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.expireIdle()
			}
		}
	}()
}

func (r *Registry) expireIdle() {
	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, s := range r.sessions {
		s.mu.Lock()
		idle := now.Sub(s.lastActivityAt) >= r.inactivityTimeout
		s.mu.Unlock()
		if idle {
			delete(r.sessions, userID)
		}
	}
}
