// Package memstore provides an in-memory session.Store. It backs unit tests
// and ephemeral deployments where sessions should not outlive the process.
package memstore

import (
	"sync"

	"github.com/clinicore/clinicore-go/session"
)

// Store is an in-memory session store. The zero value is not usable; use New.
type Store struct {
	mu      sync.RWMutex
	current session.Session
	present bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{}
}

// Get returns the stored session, or the zero session when nothing is stored.
func (s *Store) Get() (session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.present {
		return session.Session{}, nil
	}
	return copySession(s.current), nil
}

// Set replaces the stored session.
func (s *Store) Set(sess session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = copySession(sess)
	s.present = true
	return nil
}

// Clear removes the stored session.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = session.Session{}
	s.present = false
	return nil
}

// copySession deep-copies the user record so callers cannot mutate stored
// state through the returned pointer.
func copySession(sess session.Session) session.Session {
	if sess.User != nil {
		user := *sess.User
		if sess.User.Profile != nil {
			user.Profile = append([]byte(nil), sess.User.Profile...)
		}
		sess.User = &user
	}
	return sess
}
