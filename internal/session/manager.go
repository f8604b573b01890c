package session

import (
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrNotFound is returned for session IDs that are unknown or have been
// evicted.
var ErrNotFound = errors.New("session not found")

// Manager is an LRU-bounded session registry. Browsers rarely tell us
// when a viewer tab closes, so abandoned sessions age out by eviction
// once the registry is full.
type Manager struct {
	sessions *lru.Cache[string, *Session]
}

func NewManager(maxSessions int) (*Manager, error) {
	if maxSessions <= 0 {
		maxSessions = 256
	}
	sessions, err := lru.New[string, *Session](maxSessions)
	if err != nil {
		return nil, err
	}
	return &Manager{sessions: sessions}, nil
}

func (m *Manager) Put(s *Session) {
	m.sessions.Add(s.ID, s)
}

func (m *Manager) Get(id string) (*Session, error) {
	s, ok := m.sessions.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *Manager) Delete(id string) bool {
	return m.sessions.Remove(id)
}

func (m *Manager) Len() int {
	return m.sessions.Len()
}
