package testutil

import (
	"github.com/hupe1980/agentcrew/core"
)

// EventBuilder provides a fluent helper for constructing events in tests.
// Example:
//
//	ev := NewEventBuilder().Kind(core.EventAgentThinking).Run("run-1").Agent("triage").Build()
//
// Chain only the parts you need; sensible defaults are applied.
type EventBuilder struct {
	kind      core.EventKind
	runID     string
	agentName string
	id        string
	payload   map[string]any
}

// NewEventBuilder creates a builder with defaults: an agent_started event
// reported by "agent" for run "run-1".
func NewEventBuilder() *EventBuilder {
	return &EventBuilder{kind: core.EventAgentStarted, runID: "run-1", agentName: "agent"}
}

// Kind sets the event kind (chainable).
func (b *EventBuilder) Kind(k core.EventKind) *EventBuilder { b.kind = k; return b }

// Run sets the run ID associated with the event (chainable).
func (b *EventBuilder) Run(id string) *EventBuilder { b.runID = id; return b }

// Agent sets the reporting agent name (chainable).
func (b *EventBuilder) Agent(name string) *EventBuilder { b.agentName = name; return b }

// ID overrides the auto-generated event ID (chainable). Use mainly in tests where determinism matters.
func (b *EventBuilder) ID(id string) *EventBuilder { b.id = id; return b }

// Payload sets a payload key/value pair (chainable).
func (b *EventBuilder) Payload(key string, val any) *EventBuilder {
	if b.payload == nil {
		b.payload = map[string]any{}
	}
	b.payload[key] = val
	return b
}

// Build constructs the core.Event value.
func (b *EventBuilder) Build() core.Event {
	ev := core.NewEvent(b.kind, b.runID, b.agentName)
	if b.id != "" {
		ev.ID = b.id
	}
	if len(b.payload) > 0 {
		ev.Payload = b.payload
	}
	return ev
}
