package notify

import (
	"context"
	"sync"

	"github.com/hupe1980/agentcrew/core"
)

// RunEmitter binds a notification sink to one run id so callers emit events
// without re-threading correlation identifiers. Sink failures are wrapped in
// *core.NotificationDeliveryError and returned, never swallowed.
//
// Close releases the binding: it is idempotent, and emissions after Close are
// silently dropped so engine cleanup can race late agent notifications
// without producing spurious delivery errors.
type RunEmitter struct {
	sink  core.NotificationSink
	runID string

	mu     sync.Mutex
	closed bool
}

// NewRunEmitter creates an emitter for runID. A nil sink is replaced by
// NoopSink.
func NewRunEmitter(sink core.NotificationSink, runID string) *RunEmitter {
	if sink == nil {
		sink = NoopSink{}
	}
	return &RunEmitter{sink: sink, runID: runID}
}

// RunID returns the run id the emitter is bound to.
func (e *RunEmitter) RunID() string { return e.runID }

func (e *RunEmitter) emit(kind core.EventKind, send func() error) error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return nil
	}
	if err := send(); err != nil {
		return &core.NotificationDeliveryError{Kind: kind, Err: err}
	}
	return nil
}

// AgentStarted emits an agent_started event for agentName.
func (e *RunEmitter) AgentStarted(ctx context.Context, agentName string, payload map[string]any) error {
	return e.emit(core.EventAgentStarted, func() error {
		return e.sink.NotifyAgentStarted(ctx, e.runID, agentName, payload)
	})
}

// AgentThinking emits an agent_thinking event for agentName.
func (e *RunEmitter) AgentThinking(ctx context.Context, agentName, reasoning string, stepNumber int) error {
	return e.emit(core.EventAgentThinking, func() error {
		return e.sink.NotifyAgentThinking(ctx, e.runID, agentName, reasoning, stepNumber)
	})
}

// ToolExecuting emits a tool_executing event for agentName.
func (e *RunEmitter) ToolExecuting(ctx context.Context, agentName, toolName string, args map[string]any) error {
	return e.emit(core.EventToolExecuting, func() error {
		return e.sink.NotifyToolExecuting(ctx, e.runID, agentName, toolName, args)
	})
}

// ToolCompleted emits a tool_completed event for agentName.
func (e *RunEmitter) ToolCompleted(ctx context.Context, agentName, toolName string, result map[string]any, executionTimeMS int64) error {
	return e.emit(core.EventToolCompleted, func() error {
		return e.sink.NotifyToolCompleted(ctx, e.runID, agentName, toolName, result, executionTimeMS)
	})
}

// AgentCompleted emits an agent_completed event for agentName.
func (e *RunEmitter) AgentCompleted(ctx context.Context, agentName string, result map[string]any, executionTimeMS int64) error {
	return e.emit(core.EventAgentCompleted, func() error {
		return e.sink.NotifyAgentCompleted(ctx, e.runID, agentName, result, executionTimeMS)
	})
}

// AgentError emits an agent_error event for agentName.
func (e *RunEmitter) AgentError(ctx context.Context, agentName, errMsg string, errCtx map[string]any) error {
	return e.emit(core.EventAgentError, func() error {
		return e.sink.NotifyAgentError(ctx, e.runID, agentName, errMsg, errCtx)
	})
}

// Close drops the binding. Emissions after Close return nil without reaching
// the sink. Safe to call multiple times and from multiple goroutines.
func (e *RunEmitter) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
}

// Closed reports whether Close has been called.
func (e *RunEmitter) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
