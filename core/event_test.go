package core

import "testing"

// Event constructor & helper method tests
func TestEvent_ConstructorsAndMethods(t *testing.T) {
	e := NewEvent(EventAgentStarted, "run-123", "triage")
	if e.Kind != EventAgentStarted || e.RunID != "run-123" || e.AgentName != "triage" || e.ID == "" || e.Timestamp.IsZero() {
		t.Fatalf("NewEvent did not initialize fields correctly: %+v", e)
	}

	thinking := NewAgentThinkingEvent("run-123", "triage", "classifying request", 1)
	if thinking.Payload["reasoning"] != "classifying request" || thinking.Payload["step_number"] != 1 {
		t.Fatalf("NewAgentThinkingEvent malformed payload: %+v", thinking.Payload)
	}

	exec := NewToolExecutingEvent("run-123", "data_gathering", "fetch_prices", map[string]any{"symbol": "ETH"})
	if exec.Kind != EventToolExecuting || exec.Payload["tool_name"] != "fetch_prices" {
		t.Fatalf("NewToolExecutingEvent malformed: %+v", exec)
	}

	done := NewToolCompletedEvent("run-123", "data_gathering", "fetch_prices", map[string]any{"price": 42}, 17)
	if done.Payload["execution_time_ms"] != int64(17) {
		t.Fatalf("NewToolCompletedEvent malformed: %+v", done.Payload)
	}

	completed := NewAgentCompletedEvent("run-123", "reporting", map[string]any{"summary": "ok"}, 120)
	if completed.Kind != EventAgentCompleted || !completed.IsTerminal() {
		t.Fatalf("NewAgentCompletedEvent should be terminal: %+v", completed)
	}

	failed := NewAgentErrorEvent("run-123", "optimization", "boom", map[string]any{"attempt": 3})
	if failed.Payload["error"] != "boom" || !failed.IsTerminal() {
		t.Fatalf("NewAgentErrorEvent malformed: %+v", failed)
	}

	if thinking.IsTerminal() || exec.IsTerminal() {
		t.Error("non-terminal kinds reported terminal")
	}
}

func TestEvent_IDUniqueness(t *testing.T) {
	a := NewID()
	b := NewID()
	if a == b {
		t.Error("Expected unique IDs")
	}
}

func TestEvent_UnixSeconds(t *testing.T) {
	e := NewEvent(EventAgentThinking, "run", "agent")
	if e.UnixSeconds() <= 0 {
		t.Errorf("expected positive unix seconds, got %f", e.UnixSeconds())
	}
}
