// Package session holds pending login sessions awaiting their second factor.
// The store is in-memory by design: a pending session is short-lived and
// losing it on restart only forces the user to re-enter their password.
package session

import (
	"sync"
	"time"

	"github.com/arkrose/doorman/internal/auth/domain"
)

// DefaultTTL is how long a password-verified login waits for its code.
const DefaultTTL = 5 * time.Minute

// Store is a mutex-guarded map of pending sessions keyed by session id.
// At most one pending session exists per user; Put replaces any earlier one.
// Construct with NewStore and inject it; there is no package-level instance.
type Store struct {
	mu       sync.Mutex
	sessions map[string]domain.PendingSession // by session id
	byUser   map[string]string                // user id -> session id
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]domain.PendingSession),
		byUser:   make(map[string]string),
	}
}

// Put stores a pending session, evicting any prior session for the same
// user. Last writer wins; the evicted id becomes invalid immediately.
func (s *Store) Put(sess domain.PendingSession) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prevID, ok := s.byUser[sess.UserID]; ok {
		delete(s.sessions, prevID)
	}
	s.sessions[sess.ID] = sess
	s.byUser[sess.UserID] = sess.ID
}

// Get returns the pending session for id. Expired sessions are removed
// lazily and reported as absent.
func (s *Store) Get(id string, now time.Time) (domain.PendingSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.PendingSession{}, false
	}
	if sess.Expired(now) {
		s.removeLocked(sess)
		return domain.PendingSession{}, false
	}
	return sess, true
}

// Take atomically fetches and removes the pending session for id. At most
// one caller can take a given session; everyone else sees it as absent.
// Expired sessions cannot be taken.
func (s *Store) Take(id string, now time.Time) (domain.PendingSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.PendingSession{}, false
	}
	s.removeLocked(sess)
	if sess.Expired(now) {
		return domain.PendingSession{}, false
	}
	return sess, true
}

// IncrementAttempts bumps the failed-attempt counter and returns the updated
// session. Reports false when the session is gone or expired.
func (s *Store) IncrementAttempts(id string, now time.Time) (domain.PendingSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.PendingSession{}, false
	}
	if sess.Expired(now) {
		s.removeLocked(sess)
		return domain.PendingSession{}, false
	}

	sess.Attempts++
	s.sessions[id] = sess
	return sess, true
}

// Remove deletes a pending session by id. Removing an absent id is a no-op.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		s.removeLocked(sess)
	}
}

// SweepExpired drops every session past its deadline and returns how many
// were removed. Called by the housekeeping worker.
func (s *Store) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, sess := range s.sessions {
		if sess.Expired(now) {
			s.removeLocked(sess)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored sessions, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) removeLocked(sess domain.PendingSession) {
	delete(s.sessions, sess.ID)
	if s.byUser[sess.UserID] == sess.ID {
		delete(s.byUser, sess.UserID)
	}
}
