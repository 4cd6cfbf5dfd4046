package core

import "testing"

func TestSession_ApplyStateDeltaAndClone(t *testing.T) {
	s := NewSession("thread-1", "user-1")

	delta := map[string]any{"a": 1, "b": "x"}

	s.ApplyStateDelta(delta)
	if v, ok := s.GetState("a"); !ok || v.(int) != 1 {
		t.Fatalf("State not applied: %+v", s.State)
	}

	clone := s.Clone()
	if clone == s {
		t.Error("Clone should be a different pointer")
	}

	clone.SetState("c", 2)
	if _, exists := s.GetState("c"); exists {
		t.Error("Original should not have clone's new key")
	}
}

func TestSession_AddEventAndHistory(t *testing.T) {
	s := NewSession("thread-2", "user-1")
	s.AddEvent(NewAgentStartedEvent("run-a", "supervisor", nil))
	s.AddEvent(NewAgentCompletedEvent("run-a", "supervisor", nil, 10))
	s.AddEvent(NewAgentStartedEvent("run-b", "supervisor", nil))

	all := s.Events()
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}
	orig := all[0].AgentName
	all[0].AgentName = "changed"
	if s.Events()[0].AgentName != orig {
		t.Error("events slice should be copied on read")
	}

	runA := s.EventsForRun("run-a")
	if len(runA) != 2 {
		t.Fatalf("expected 2 events for run-a, got %d", len(runA))
	}
	for _, ev := range runA {
		if ev.RunID != "run-a" {
			t.Errorf("unexpected run id in filtered history: %s", ev.RunID)
		}
	}
}
