package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/agentcrew/core"
)

// Notification is one recorded sink call with its normalized fields.
type Notification struct {
	Kind      core.EventKind
	RunID     string
	AgentName string
	Payload   map[string]any
}

// RecordingSink captures every notification for later assertions. It is safe
// for concurrent use and can be armed to fail on selected kinds so tests can
// exercise delivery-error propagation.
type RecordingSink struct {
	mu     sync.Mutex
	calls  []Notification
	failOn map[core.EventKind]error
}

// NewRecordingSink returns an empty recording sink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{failOn: map[core.EventKind]error{}}
}

// FailOn arms the sink to return err from every notification of the given kind.
func (s *RecordingSink) FailOn(kind core.EventKind, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[kind] = err
}

func (s *RecordingSink) record(kind core.EventKind, runID, agentName string, payload map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOn[kind]; err != nil {
		return err
	}
	s.calls = append(s.calls, Notification{Kind: kind, RunID: runID, AgentName: agentName, Payload: payload})
	return nil
}

// NotifyAgentStarted implements core.NotificationSink.
func (s *RecordingSink) NotifyAgentStarted(_ context.Context, runID, agentName string, payload map[string]any) error {
	return s.record(core.EventAgentStarted, runID, agentName, payload)
}

// NotifyAgentThinking implements core.NotificationSink.
func (s *RecordingSink) NotifyAgentThinking(_ context.Context, runID, agentName, reasoning string, stepNumber int) error {
	return s.record(core.EventAgentThinking, runID, agentName, map[string]any{"reasoning": reasoning, "step_number": stepNumber})
}

// NotifyToolExecuting implements core.NotificationSink.
func (s *RecordingSink) NotifyToolExecuting(_ context.Context, runID, agentName, toolName string, args map[string]any) error {
	return s.record(core.EventToolExecuting, runID, agentName, map[string]any{"tool_name": toolName, "arguments": args})
}

// NotifyToolCompleted implements core.NotificationSink.
func (s *RecordingSink) NotifyToolCompleted(_ context.Context, runID, agentName, toolName string, result map[string]any, executionTimeMS int64) error {
	return s.record(core.EventToolCompleted, runID, agentName, map[string]any{"tool_name": toolName, "result": result, "execution_time_ms": executionTimeMS})
}

// NotifyAgentCompleted implements core.NotificationSink.
func (s *RecordingSink) NotifyAgentCompleted(_ context.Context, runID, agentName string, result map[string]any, executionTimeMS int64) error {
	return s.record(core.EventAgentCompleted, runID, agentName, map[string]any{"result": result, "execution_time_ms": executionTimeMS})
}

// NotifyAgentError implements core.NotificationSink.
func (s *RecordingSink) NotifyAgentError(_ context.Context, runID, agentName, errMsg string, errCtx map[string]any) error {
	return s.record(core.EventAgentError, runID, agentName, map[string]any{"error": errMsg, "error_context": errCtx})
}

// Notifications returns a copy of everything recorded so far.
func (s *RecordingSink) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.calls))
	copy(out, s.calls)
	return out
}

// Kinds returns the recorded kinds in call order.
func (s *RecordingSink) Kinds() []core.EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]core.EventKind, len(s.calls))
	for i, n := range s.calls {
		kinds[i] = n.Kind
	}
	return kinds
}

// ByKind returns the recorded notifications of one kind, preserving order.
func (s *RecordingSink) ByKind(kind core.EventKind) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Notification
	for _, n := range s.calls {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// ByAgent returns the recorded notifications reported by one agent name.
func (s *RecordingSink) ByAgent(agentName string) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Notification
	for _, n := range s.calls {
		if n.AgentName == agentName {
			out = append(out, n)
		}
	}
	return out
}
