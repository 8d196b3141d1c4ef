package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"wanderplan/planner"
)

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("planning session not found")

const defaultSessionTTL = 2 * time.Hour

type sessionEntry struct {
	mu        sync.Mutex
	session   *planner.Session
	narrative string
	touched   time.Time
}

// SessionStore keeps planning sessions in memory. Operations on one session
// are serialised; different sessions proceed in parallel.
type SessionStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*sessionEntry
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{ttl: ttl, now: time.Now, entries: make(map[string]*sessionEntry)}
}

// Add stores s and returns its new ID.
func (s *SessionStore) Add(sess *planner.Session, narrative string) string {
	id := uuid.New().String()
	s.mu.Lock()
	s.entries[id] = &sessionEntry{session: sess, narrative: narrative, touched: s.now()}
	s.mu.Unlock()
	return id
}

// With runs fn while holding the session's lock.
func (s *SessionStore) With(id string, fn func(e *sessionEntry) error) error {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok && s.now().Sub(e.touched) > s.ttl {
		delete(s.entries, id)
		ok = false
	}
	if ok {
		e.touched = s.now()
	}
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e)
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops sessions idle for longer than the TTL and reports how many.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.ttl)
	n := 0
	for id, e := range s.entries {
		if e.touched.Before(cutoff) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is cancelled.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep()
		}
	}
}
