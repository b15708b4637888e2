package lp

import (
	"sync"
	"time"

	"github.com/osa030/humbleledger/internal/domain/playlist"
)

// Store keeps at most one Session per channel.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
	}
}

// Supersede replaces the channel's session with a fresh, not yet started one.
func (s *Store) Supersede(channelID string, p *playlist.Playlist) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[channelID] = &Session{Playlist: p}
}

// Start marks the channel's session as started at the given time.
// Returns false when the channel has no session.
func (s *Store) Start(channelID string, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[channelID]
	if !ok {
		return false
	}
	started := at
	session.Started = &started
	return true
}

// Get returns a copy of the channel's session.
func (s *Store) Get(channelID string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[channelID]
	if !ok {
		return Session{}, false
	}
	return *session, true
}

// Snapshot returns a copy of every session keyed by channel.
func (s *Store) Snapshot() map[string]Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]Session, len(s.sessions))
	for id, session := range s.sessions {
		result[id] = *session
	}
	return result
}

// Len returns the number of channels with a session.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
