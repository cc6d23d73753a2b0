package repositories

import (
	"sync"

	"github.com/duskmoss/sortify/internal/models"
)

// SessionStore holds the transient state of the current login attempt in
// memory, scoped to the process lifetime.
//
// A second login attempt overwrites the pending state (last writer wins).
type SessionStore struct {
	mu      sync.Mutex
	pending *models.PendingAuthState
}

// NewSessionStore creates an empty [SessionStore].
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// PutPending stores the pending auth state, replacing any prior attempt.
func (s *SessionStore) PutPending(state models.PendingAuthState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &state
}

// TakePending returns and deletes the pending auth state.
//
// Read-once semantics: a stale verifier cannot be replayed after the login
// attempt completes or fails.
func (s *SessionStore) TakePending() *models.PendingAuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.pending
	s.pending = nil
	return pending
}

// ClearPending drops any pending auth state.
func (s *SessionStore) ClearPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}
