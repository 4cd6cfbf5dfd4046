package core

import "context"

// NotificationSink is the outbound push channel for run lifecycle events.
// Implementations deliver to whatever transport serves the requesting user
// (WebSocket hub, message broker, test recorder).
//
// Delivery errors must be returned, not logged away: the orchestration layers
// treat a failed notification as a failed run so operators see transport
// problems immediately instead of silently losing visibility.
//
// The tool-level notifications are emitted by agent units themselves when
// they invoke tools; the run-level ones are emitted by the supervisor and
// engine. All methods must be safe for concurrent use.
type NotificationSink interface {
	NotifyAgentStarted(ctx context.Context, runID, agentName string, payload map[string]any) error
	NotifyAgentThinking(ctx context.Context, runID, agentName, reasoning string, stepNumber int) error
	NotifyToolExecuting(ctx context.Context, runID, agentName, toolName string, args map[string]any) error
	NotifyToolCompleted(ctx context.Context, runID, agentName, toolName string, result map[string]any, executionTimeMS int64) error
	NotifyAgentCompleted(ctx context.Context, runID, agentName string, result map[string]any, executionTimeMS int64) error
	NotifyAgentError(ctx context.Context, runID, agentName, errMsg string, errCtx map[string]any) error
}
