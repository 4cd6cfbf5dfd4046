package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hupe1980/agentcrew/core"
)

// Interface compliance (compile-time assertion)
var _ core.SessionStore = (*SQLiteStore)(nil)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "sessions.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_CreateAndGet(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, "thread-1", "user-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID != "thread-1" {
		t.Errorf("ID = %s, want thread-1", created.ID)
	}
	if created.UserID != "user-1" {
		t.Errorf("UserID = %s, want user-1", created.UserID)
	}

	got, err := store.Get(ctx, "thread-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.UserID != "user-1" {
		t.Errorf("UserID = %s, want user-1", got.UserID)
	}
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	store := newTestSQLiteStore(t)

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_GetOrCreate(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.ApplyDelta(ctx, "thread-1", map[string]any{"k": "v"}); err != nil {
		t.Fatalf("ApplyDelta() error = %v", err)
	}

	sess, err := store.GetOrCreate(ctx, "thread-1", "user-2")
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if v, ok := sess.GetState("k"); !ok || v != "v" {
		t.Errorf("existing session state lost: %v %v", v, ok)
	}
}

func TestSQLiteStore_StateRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, "thread-1", "user-1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.ApplyDelta(ctx, "thread-1", map[string]any{"count": float64(3), "label": "ok"}); err != nil {
		t.Fatalf("ApplyDelta() error = %v", err)
	}
	if err := store.ApplyDelta(ctx, "thread-1", map[string]any{"label": "updated"}); err != nil {
		t.Fatalf("ApplyDelta() error = %v", err)
	}

	sess, err := store.Get(ctx, "thread-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if v, _ := sess.GetState("count"); v != float64(3) {
		t.Errorf("count = %v, want 3", v)
	}
	if v, _ := sess.GetState("label"); v != "updated" {
		t.Errorf("label = %v, want updated", v)
	}
}

func TestSQLiteStore_AppendEventAutoCreates(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	ev := core.NewAgentCompletedEvent("run-1", "reporting", map[string]any{"ok": true}, 42)
	if err := store.AppendEvent(ctx, "thread-1", ev); err != nil {
		t.Fatalf("AppendEvent() error = %v", err)
	}

	sess, err := store.Get(ctx, "thread-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	events := sess.Events()
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].Kind != core.EventAgentCompleted {
		t.Errorf("Kind = %s, want agent_completed", events[0].Kind)
	}
	if events[0].AgentName != "reporting" {
		t.Errorf("AgentName = %s, want reporting", events[0].AgentName)
	}
	if events[0].Payload["result"] == nil {
		t.Error("payload did not survive the round trip")
	}
}

func TestSQLiteStore_EventsSurviveCreateReset(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, "thread-1", "user-1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.AppendEvent(ctx, "thread-1", core.NewAgentStartedEvent("run-1", "triage", nil)); err != nil {
		t.Fatalf("AppendEvent() error = %v", err)
	}

	// Recreating the session resets state but keeps the audit history.
	fresh, err := store.Create(ctx, "thread-1", "user-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(fresh.Events()) != 1 {
		t.Errorf("len(events) = %d, want 1", len(fresh.Events()))
	}
}

func TestSQLiteStore_EventsForRunOrdered(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.AppendEvent(ctx, "thread-1", core.NewAgentStartedEvent("run-1", "triage", nil)); err != nil {
		t.Fatalf("AppendEvent() error = %v", err)
	}
	if err := store.AppendEvent(ctx, "thread-1", core.NewAgentCompletedEvent("run-1", "triage", map[string]any{"summary": "done"}, 10)); err != nil {
		t.Fatalf("AppendEvent() error = %v", err)
	}
	if err := store.AppendEvent(ctx, "thread-1", core.NewAgentStartedEvent("run-2", "triage", nil)); err != nil {
		t.Fatalf("AppendEvent() error = %v", err)
	}

	sess, err := store.Get(ctx, "thread-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	events := sess.EventsForRun("run-1")
	if len(events) != 2 {
		t.Fatalf("len(events) = %d, want 2", len(events))
	}
	if events[0].Kind != core.EventAgentStarted || events[1].Kind != core.EventAgentCompleted {
		t.Errorf("events out of order: %s, %s", events[0].Kind, events[1].Kind)
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if _, err := store.Create(ctx, "thread-1", "user-1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.ApplyDelta(ctx, "thread-1", map[string]any{"k": "v"}); err != nil {
		t.Fatalf("ApplyDelta() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore() reopen error = %v", err)
	}
	defer reopened.Close()

	sess, err := reopened.Get(ctx, "thread-1")
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if v, _ := sess.GetState("k"); v != "v" {
		t.Errorf("state did not persist across reopen: %v", v)
	}
}
