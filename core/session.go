package core

import (
	"context"
	"sync"
	"time"
)

// Session represents a conversational thread container tracking mutable
// key/value state plus an ordered run-event history. It is safe for
// concurrent access.
//
// Contract:
//   - State mutations update the Updated timestamp
//   - Events returns a copy; callers cannot mutate stored history
//   - EventsForRun filters the history to a single run id
//   - Clone performs deep copies of maps/slices for safe divergence.
type Session struct {
	ID       string            `json:"id"`
	UserID   string            `json:"user_id"`
	State    map[string]any    `json:"state"`
	History  []Event           `json:"history"`
	Created  time.Time         `json:"created"`
	Updated  time.Time         `json:"updated"`
	Metadata map[string]string `json:"metadata"`
	mu       sync.RWMutex
}

// NewSession creates a new session for the given thread and user ids.
func NewSession(id, userID string) *Session {
	now := time.Now().UTC()
	return &Session{ID: id, UserID: userID, State: map[string]any{}, History: []Event{}, Created: now, Updated: now, Metadata: map[string]string{}}
}

// GetState returns the value and existence flag for a state key.
func (s *Session) GetState(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.State[key]
	return v, ok
}

// SetState sets a key/value pair in session state updating the Updated timestamp.
func (s *Session) SetState(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State[key] = value
	s.Updated = time.Now().UTC()
}

// ApplyStateDelta merges the provided key/value pairs into State.
func (s *Session) ApplyStateDelta(delta map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range delta {
		s.State[k] = v
	}
	s.Updated = time.Now().UTC()
}

// AddEvent appends an event to the history updating the Updated timestamp.
func (s *Session) AddEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.History = append(s.History, ev)
	s.Updated = time.Now().UTC()
}

// Events returns a copy of the full event history.
func (s *Session) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]Event, len(s.History))
	copy(events, s.History)
	return events
}

// EventsForRun returns the events recorded for one run id, preserving order.
func (s *Session) EventsForRun(runID string) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Event, 0, len(s.History))
	for _, ev := range s.History {
		if ev.RunID == runID {
			res = append(res, ev)
		}
	}
	return res
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{ID: s.ID, UserID: s.UserID, State: make(map[string]any, len(s.State)), History: make([]Event, len(s.History)), Created: s.Created, Updated: s.Updated, Metadata: make(map[string]string, len(s.Metadata))}
	for k, v := range s.State {
		clone.State[k] = v
	}
	copy(clone.History, s.History)
	for k, v := range s.Metadata {
		clone.Metadata[k] = v
	}
	return clone
}

// SessionStore persists sessions and their evolving state / event history.
// It doubles as the persistence handle attached to an ExecutionContext:
// execution requires one to be present, and the engine appends the run's
// lifecycle events to it for audit.
type SessionStore interface {
	Create(ctx context.Context, id, userID string) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	GetOrCreate(ctx context.Context, id, userID string) (*Session, error)
	AppendEvent(ctx context.Context, sessionID string, event Event) error
	ApplyDelta(ctx context.Context, sessionID string, delta map[string]any) error
}
