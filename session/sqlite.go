package session

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/agentcrew/core"
)

//go:embed migrations/001_initial_schema.sql
var migrationV1 string

// SQLiteStore is a durable SessionStore backed by a single SQLite database
// file. Session state and metadata are stored as JSON documents; lifecycle
// events are appended to a separate table so the audit history stays
// immutable even when a session row is recreated.
//
// The store serializes writes through an internal mutex: SQLite allows one
// writer at a time and concurrent executions for different users all append
// to the same file.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (creating if necessary) the database at dbPath with
// WAL journaling and runs pending migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("session: creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("session: opening database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("session: running migrations: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("session: running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// migrate runs pending migrations.
func (s *SQLiteStore) migrate() error {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		// Table doesn't exist yet, run initial migration
		version = 0
	}

	if version < 1 {
		if _, err := s.db.Exec(migrationV1); err != nil {
			return fmt.Errorf("applying migration v1: %w", err)
		}
	}

	return nil
}

// Create inserts a fresh session row (or resets an existing one to empty
// state). Previously appended events are kept: the audit history is
// append-only.
func (s *SQLiteStore) Create(ctx context.Context, id, userID string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, state, metadata, created, updated)
		VALUES (?, ?, '{}', '{}', ?, ?)
		ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id, state = '{}', metadata = '{}', updated = excluded.updated
	`, id, userID, now, now)
	if err != nil {
		return nil, fmt.Errorf("session: create %s: %w", id, err)
	}
	return s.loadLocked(ctx, id)
}

// Get returns the session with the given id, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx, id)
}

// GetOrCreate returns the session with the given id, creating an empty one
// when absent.
func (s *SQLiteStore) GetOrCreate(ctx context.Context, id, userID string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, state, metadata, created, updated)
		VALUES (?, ?, '{}', '{}', ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, userID, now, now)
	if err != nil {
		return nil, fmt.Errorf("session: get-or-create %s: %w", id, err)
	}
	return s.loadLocked(ctx, id)
}

// AppendEvent adds a lifecycle event to the session's audit history, creating
// the session row first when absent.
func (s *SQLiteStore) AppendEvent(ctx context.Context, sessionID string, ev core.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, state, metadata, created, updated)
		VALUES (?, '', '{}', '{}', ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated = excluded.updated
	`, sessionID, now, now); err != nil {
		return fmt.Errorf("session: append event to %s: %w", sessionID, err)
	}

	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("session: marshal event payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session_events (event_id, session_id, run_id, kind, agent_name, payload, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ev.ID, sessionID, ev.RunID, string(ev.Kind), ev.AgentName, string(payload), ev.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("session: append event to %s: %w", sessionID, err)
	}
	return nil
}

// ApplyDelta merges a key/value delta into the session's state document.
func (s *SQLiteStore) ApplyDelta(ctx context.Context, sessionID string, delta map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("session: apply delta to %s: %w", sessionID, err)
	}
	defer func() { _ = tx.Rollback() }()

	var stateJSON string
	err = tx.QueryRowContext(ctx, `SELECT state FROM sessions WHERE id = ?`, sessionID).Scan(&stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		now := time.Now().UTC().Format(time.RFC3339Nano)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (id, user_id, state, metadata, created, updated)
			VALUES (?, '', '{}', '{}', ?, ?)
		`, sessionID, now, now); err != nil {
			return fmt.Errorf("session: apply delta to %s: %w", sessionID, err)
		}
		stateJSON = "{}"
	} else if err != nil {
		return fmt.Errorf("session: apply delta to %s: %w", sessionID, err)
	}

	state := map[string]any{}
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return fmt.Errorf("session: decode state for %s: %w", sessionID, err)
	}
	for k, v := range delta {
		state[k] = v
	}
	merged, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session: encode state for %s: %w", sessionID, err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET state = ?, updated = ? WHERE id = ?`, string(merged), now, sessionID); err != nil {
		return fmt.Errorf("session: apply delta to %s: %w", sessionID, err)
	}
	return tx.Commit()
}

// loadLocked reads a full session (row + event history). Caller holds the mutex.
func (s *SQLiteStore) loadLocked(ctx context.Context, id string) (*core.Session, error) {
	var (
		userID, stateJSON, metaJSON string
		created, updated            string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, state, metadata, created, updated FROM sessions WHERE id = ?
	`, id).Scan(&userID, &stateJSON, &metaJSON, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: load %s: %w", id, err)
	}

	sess := core.NewSession(id, userID)
	if err := json.Unmarshal([]byte(stateJSON), &sess.State); err != nil {
		return nil, fmt.Errorf("session: decode state for %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(metaJSON), &sess.Metadata); err != nil {
		return nil, fmt.Errorf("session: decode metadata for %s: %w", id, err)
	}
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		sess.Created = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		sess.Updated = t
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, run_id, kind, agent_name, payload, timestamp
		FROM session_events WHERE session_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("session: load events for %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ev          core.Event
			kind        string
			payloadJSON sql.NullString
			ts          string
		)
		if err := rows.Scan(&ev.ID, &ev.RunID, &kind, &ev.AgentName, &payloadJSON, &ts); err != nil {
			return nil, fmt.Errorf("session: scan event for %s: %w", id, err)
		}
		ev.Kind = core.EventKind(kind)
		if payloadJSON.Valid && payloadJSON.String != "" && payloadJSON.String != "null" {
			if err := json.Unmarshal([]byte(payloadJSON.String), &ev.Payload); err != nil {
				return nil, fmt.Errorf("session: decode event payload for %s: %w", id, err)
			}
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			ev.Timestamp = t
		}
		sess.History = append(sess.History, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session: iterate events for %s: %w", id, err)
	}
	return sess, nil
}
