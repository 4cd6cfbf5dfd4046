package core

import (
	"time"

	"github.com/google/uuid"
)

// EventKind labels the lifecycle stage an Event reports. The set is closed:
// sinks and UI clients switch on it, so new kinds require coordinated rollout.
type EventKind string

// Lifecycle event kinds emitted during a run, in typical order of appearance.
const (
	EventAgentStarted   EventKind = "agent_started"
	EventAgentThinking  EventKind = "agent_thinking"
	EventToolExecuting  EventKind = "tool_executing"
	EventToolCompleted  EventKind = "tool_completed"
	EventAgentCompleted EventKind = "agent_completed"
	EventAgentError     EventKind = "agent_error"
)

// Event is the primary unit of communication between the engine, agent units
// and external clients. After emission it should be treated as immutable. It
// captures:
//
//   - Correlation (ID, RunID)
//   - The reporting agent's name ("supervisor" for run-level events)
//   - A kind-specific Payload (reasoning text, tool arguments, results)
//   - High precision UTC timestamp
//
// Payload may be nil for kinds that carry no data. Timestamp uses a native
// time.Time (UTC); use UnixSeconds where numeric forms are needed for metrics
// or legacy clients.
type Event struct {
	ID        string         `json:"id"`
	Kind      EventKind      `json:"kind"`
	RunID     string         `json:"run_id"`
	AgentName string         `json:"agent_name"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent creates a bare event of the given kind reported by agentName for
// the run. Prefer the kind-specific constructors for common lifecycle stages.
func NewEvent(kind EventKind, runID, agentName string) Event {
	return Event{
		ID:        NewID(),
		Kind:      kind,
		RunID:     runID,
		AgentName: agentName,
		Timestamp: time.Now().UTC(),
	}
}

// NewAgentStartedEvent reports that agentName began work on the run. The
// payload carries caller-facing context such as the user request summary.
func NewAgentStartedEvent(runID, agentName string, payload map[string]any) Event {
	e := NewEvent(EventAgentStarted, runID, agentName)
	e.Payload = payload
	return e
}

// NewAgentThinkingEvent reports intermediate reasoning progress. stepNumber
// is 1-based and monotonically increasing within one agent execution.
func NewAgentThinkingEvent(runID, agentName, reasoning string, stepNumber int) Event {
	e := NewEvent(EventAgentThinking, runID, agentName)
	e.Payload = map[string]any{"reasoning": reasoning, "step_number": stepNumber}
	return e
}

// NewToolExecutingEvent reports that agentName is about to invoke toolName
// with the given arguments.
func NewToolExecutingEvent(runID, agentName, toolName string, args map[string]any) Event {
	e := NewEvent(EventToolExecuting, runID, agentName)
	e.Payload = map[string]any{"tool_name": toolName, "arguments": args}
	return e
}

// NewToolCompletedEvent records the outcome of a previously reported tool
// invocation together with its wall-clock duration in milliseconds.
func NewToolCompletedEvent(runID, agentName, toolName string, result map[string]any, executionTimeMS int64) Event {
	e := NewEvent(EventToolCompleted, runID, agentName)
	e.Payload = map[string]any{"tool_name": toolName, "result": result, "execution_time_ms": executionTimeMS}
	return e
}

// NewAgentCompletedEvent reports that agentName finished successfully, with
// its result data and wall-clock duration in milliseconds.
func NewAgentCompletedEvent(runID, agentName string, result map[string]any, executionTimeMS int64) Event {
	e := NewEvent(EventAgentCompleted, runID, agentName)
	e.Payload = map[string]any{"result": result, "execution_time_ms": executionTimeMS}
	return e
}

// NewAgentErrorEvent reports a failed execution. errCtx carries structured
// diagnostic fields (attempt counts, upstream status) safe to show operators.
func NewAgentErrorEvent(runID, agentName, errMsg string, errCtx map[string]any) Event {
	e := NewEvent(EventAgentError, runID, agentName)
	e.Payload = map[string]any{"error": errMsg, "error_context": errCtx}
	return e
}

// NewID generates a new unique identifier for events and runs.
//
// This function creates a UUID-based unique identifier that can be used
// for correlation throughout the framework.
//
// Returns a string representation of a new UUID.
func NewID() string { return uuid.NewString() }

// IsTerminal reports whether the event ends an agent execution (completion or
// error). Streaming consumers use it to close per-agent progress indicators.
func (e Event) IsTerminal() bool {
	return e.Kind == EventAgentCompleted || e.Kind == EventAgentError
}

// UnixSeconds returns the timestamp as fractional seconds since Unix epoch.
// Useful for metrics & numeric serialization paths.
func (e Event) UnixSeconds() float64 { return float64(e.Timestamp.UnixNano()) / 1e9 }
