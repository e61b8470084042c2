package bridge

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Session is one websocket client and its upstream connection.
type Session struct {
	ID         string
	RemoteAddr string
	Upstream   string
	StartedAt  time.Time

	stats  SessionStats
	cancel context.CancelFunc
}

// Close ends the relay; the session removes itself from the manager.
func (s *Session) Close() {
	s.cancel()
}

// Manager tracks live sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	nextID   atomic.Uint64

	sweeperStarted bool
}

// NewManager returns an empty registry.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Add registers a new session under a fresh id.
func (m *Manager) Add(remote, upstream string, cancel context.CancelFunc, now time.Time) *Session {
	s := &Session{
		ID:         fmt.Sprintf("s%d", m.nextID.Add(1)),
		RemoteAddr: remote,
		Upstream:   upstream,
		StartedAt:  now,
		cancel:     cancel,
	}
	s.stats.touch(now)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Remove forgets a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Get looks a session up by id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// List returns every session ordered by start time.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// CloseAll ends every session.
func (m *Manager) CloseAll() {
	for _, s := range m.List() {
		s.Close()
	}
}
