package core

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("watch session not found")
	ErrSessionClaimed  = errors.New("watch session already has a controller")
)

type sessionEntry struct {
	session *WatchSession
	created time.Time
	claimed bool
}

// Sessions holds watch sessions between the page render and the page's live
// connection. A session is claimed by exactly one connection and released when it closes.
type Sessions struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	now     func() time.Time
}

func NewSessions() *Sessions {
	return &Sessions{
		entries: make(map[string]*sessionEntry),
		now:     time.Now,
	}
}

func (s *Sessions) Register(session *WatchSession) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = &sessionEntry{session: session, created: s.now()}
	return id
}

func (s *Sessions) Claim(id string) (*WatchSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if entry.claimed {
		return nil, ErrSessionClaimed
	}
	entry.claimed = true
	return entry.session, nil
}

func (s *Sessions) Release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// Sweep drops sessions nobody claimed within ttl and returns how many went.
func (s *Sessions) Sweep(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-ttl)
	removed := 0
	for id, entry := range s.entries {
		if !entry.claimed && entry.created.Before(cutoff) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
