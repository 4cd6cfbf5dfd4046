package session

import (
	"context"
	"errors"
	"sync"

	"github.com/hupe1980/agentcrew/core"
)

// ErrNotFound is returned by stores when a session id is unknown.
var ErrNotFound = errors.New("session not found")

// InMemoryStore is a volatile SessionStore implementation storing
// sessions in a process local map. It is safe for concurrent access and best
// suited for tests or ephemeral demo servers. Each returned session is cloned
// to prevent external mutation of internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

// NewInMemoryStore constructs an empty in‑memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.Session)}
}

// Create forces the creation (or overwriting) of a session with the given id.
func (s *InMemoryStore) Create(_ context.Context, id, userID string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createSessionLocked(id, userID).Clone(), nil
}

// Get returns a clone of an existing session or ErrNotFound.
func (s *InMemoryStore) Get(_ context.Context, id string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[id]; ok {
		return sess.Clone(), nil
	}
	return nil, ErrNotFound
}

// GetOrCreate returns a clone of an existing session, creating it first when
// absent.
func (s *InMemoryStore) GetOrCreate(_ context.Context, id, userID string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess.Clone(), nil
	}
	return s.createSessionLocked(id, userID).Clone(), nil
}

// AppendEvent adds an event to an existing or newly created session.
func (s *InMemoryStore) AppendEvent(_ context.Context, sessionID string, ev core.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = s.createSessionLocked(sessionID, "")
	}
	sess.AddEvent(ev)
	return nil
}

// ApplyDelta merges a key/value delta into the session state.
func (s *InMemoryStore) ApplyDelta(_ context.Context, sessionID string, delta map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = s.createSessionLocked(sessionID, "")
	}
	sess.ApplyStateDelta(delta)
	return nil
}

// createSessionLocked allocates and stores a new session; caller must already
// hold the write lock. Internal helper used by Create/GetOrCreate/Append paths.
func (s *InMemoryStore) createSessionLocked(id, userID string) *core.Session {
	sess := core.NewSession(id, userID)
	s.sessions[id] = sess
	return sess
}
