package session

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/agentcrew/core"
)

// Interface compliance (compile-time assertion)
var _ core.SessionStore = (*InMemoryStore)(nil)

func TestInMemoryStore_CreateAndGet(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	created, err := store.Create(ctx, "thread-1", "user-1")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID != "thread-1" {
		t.Errorf("expected session id thread-1, got %s", created.ID)
	}
	if created.UserID != "user-1" {
		t.Errorf("expected user id user-1, got %s", created.UserID)
	}

	got, err := store.Get(ctx, "thread-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("expected session %s, got %s", created.ID, got.ID)
	}
}

func TestInMemoryStore_GetMissing(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInMemoryStore_GetOrCreate(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	first, err := store.GetOrCreate(ctx, "thread-1", "user-1")
	if err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}
	if first.UserID != "user-1" {
		t.Errorf("expected user id user-1, got %s", first.UserID)
	}

	// Second call must return the same session, not reset it.
	if err := store.ApplyDelta(ctx, "thread-1", map[string]any{"k": "v"}); err != nil {
		t.Fatalf("ApplyDelta returned error: %v", err)
	}
	again, err := store.GetOrCreate(ctx, "thread-1", "user-2")
	if err != nil {
		t.Fatalf("GetOrCreate returned error: %v", err)
	}
	if again.UserID != "user-1" {
		t.Errorf("existing session user id changed to %s", again.UserID)
	}
	if v, ok := again.GetState("k"); !ok || v != "v" {
		t.Errorf("existing session state lost: %v %v", v, ok)
	}
}

func TestInMemoryStore_CreateResetsState(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	if _, err := store.Create(ctx, "thread-1", "user-1"); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := store.ApplyDelta(ctx, "thread-1", map[string]any{"k": "v"}); err != nil {
		t.Fatalf("ApplyDelta returned error: %v", err)
	}

	fresh, err := store.Create(ctx, "thread-1", "user-1")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, ok := fresh.GetState("k"); ok {
		t.Error("Create did not reset session state")
	}
}

func TestInMemoryStore_AppendEvent(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	ev := core.NewAgentStartedEvent("run-1", "triage", nil)
	if err := store.AppendEvent(ctx, "thread-1", ev); err != nil {
		t.Fatalf("AppendEvent returned error: %v", err)
	}

	sess, err := store.Get(ctx, "thread-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	events := sess.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Kind != core.EventAgentStarted {
		t.Errorf("expected agent_started, got %s", events[0].Kind)
	}
}

func TestInMemoryStore_EventsForRun(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	if err := store.AppendEvent(ctx, "thread-1", core.NewAgentStartedEvent("run-1", "triage", nil)); err != nil {
		t.Fatalf("AppendEvent returned error: %v", err)
	}
	if err := store.AppendEvent(ctx, "thread-1", core.NewAgentStartedEvent("run-2", "triage", nil)); err != nil {
		t.Fatalf("AppendEvent returned error: %v", err)
	}

	sess, err := store.Get(ctx, "thread-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	runEvents := sess.EventsForRun("run-1")
	if len(runEvents) != 1 {
		t.Fatalf("expected 1 event for run-1, got %d", len(runEvents))
	}
	if runEvents[0].RunID != "run-1" {
		t.Errorf("expected run-1, got %s", runEvents[0].RunID)
	}
}

func TestInMemoryStore_ApplyDelta(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	if err := store.ApplyDelta(ctx, "thread-1", map[string]any{"a": 1, "b": "x"}); err != nil {
		t.Fatalf("ApplyDelta returned error: %v", err)
	}
	if err := store.ApplyDelta(ctx, "thread-1", map[string]any{"b": "y"}); err != nil {
		t.Fatalf("ApplyDelta returned error: %v", err)
	}

	sess, err := store.Get(ctx, "thread-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if v, _ := sess.GetState("a"); v != 1 {
		t.Errorf("expected a=1, got %v", v)
	}
	if v, _ := sess.GetState("b"); v != "y" {
		t.Errorf("expected b=y, got %v", v)
	}
}

func TestInMemoryStore_ReturnsClones(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	if _, err := store.Create(ctx, "thread-1", "user-1"); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	first, _ := store.Get(ctx, "thread-1")
	first.SetState("mutated", true)

	second, _ := store.Get(ctx, "thread-1")
	if _, ok := second.GetState("mutated"); ok {
		t.Error("mutation of returned session leaked into the store")
	}
}
