package notify

import (
	"context"

	"github.com/hupe1980/agentcrew/core"
)

// ChannelSink implements core.NotificationSink by publishing lifecycle events
// to a Hub under one channel id. The supervisor constructs one per run from
// the execution context's channel id, so the binding never outlives the run.
type ChannelSink struct {
	hub       *Hub
	channelID string
}

// NewChannelSink binds a hub and a channel id into a notification sink.
func NewChannelSink(hub *Hub, channelID string) *ChannelSink {
	return &ChannelSink{hub: hub, channelID: channelID}
}

// NotifyAgentStarted implements core.NotificationSink.
func (s *ChannelSink) NotifyAgentStarted(ctx context.Context, runID, agentName string, payload map[string]any) error {
	return s.hub.Publish(ctx, s.channelID, core.NewAgentStartedEvent(runID, agentName, payload))
}

// NotifyAgentThinking implements core.NotificationSink.
func (s *ChannelSink) NotifyAgentThinking(ctx context.Context, runID, agentName, reasoning string, stepNumber int) error {
	return s.hub.Publish(ctx, s.channelID, core.NewAgentThinkingEvent(runID, agentName, reasoning, stepNumber))
}

// NotifyToolExecuting implements core.NotificationSink.
func (s *ChannelSink) NotifyToolExecuting(ctx context.Context, runID, agentName, toolName string, args map[string]any) error {
	return s.hub.Publish(ctx, s.channelID, core.NewToolExecutingEvent(runID, agentName, toolName, args))
}

// NotifyToolCompleted implements core.NotificationSink.
func (s *ChannelSink) NotifyToolCompleted(ctx context.Context, runID, agentName, toolName string, result map[string]any, executionTimeMS int64) error {
	return s.hub.Publish(ctx, s.channelID, core.NewToolCompletedEvent(runID, agentName, toolName, result, executionTimeMS))
}

// NotifyAgentCompleted implements core.NotificationSink.
func (s *ChannelSink) NotifyAgentCompleted(ctx context.Context, runID, agentName string, result map[string]any, executionTimeMS int64) error {
	return s.hub.Publish(ctx, s.channelID, core.NewAgentCompletedEvent(runID, agentName, result, executionTimeMS))
}

// NotifyAgentError implements core.NotificationSink.
func (s *ChannelSink) NotifyAgentError(ctx context.Context, runID, agentName, errMsg string, errCtx map[string]any) error {
	return s.hub.Publish(ctx, s.channelID, core.NewAgentErrorEvent(runID, agentName, errMsg, errCtx))
}

// NoopSink discards every notification. Used when an execution context has no
// notification channel and in tests that do not assert on event traffic.
type NoopSink struct{}

// NotifyAgentStarted implements core.NotificationSink.
func (NoopSink) NotifyAgentStarted(context.Context, string, string, map[string]any) error {
	return nil
}

// NotifyAgentThinking implements core.NotificationSink.
func (NoopSink) NotifyAgentThinking(context.Context, string, string, string, int) error { return nil }

// NotifyToolExecuting implements core.NotificationSink.
func (NoopSink) NotifyToolExecuting(context.Context, string, string, string, map[string]any) error {
	return nil
}

// NotifyToolCompleted implements core.NotificationSink.
func (NoopSink) NotifyToolCompleted(context.Context, string, string, string, map[string]any, int64) error {
	return nil
}

// NotifyAgentCompleted implements core.NotificationSink.
func (NoopSink) NotifyAgentCompleted(context.Context, string, string, map[string]any, int64) error {
	return nil
}

// NotifyAgentError implements core.NotificationSink.
func (NoopSink) NotifyAgentError(context.Context, string, string, string, map[string]any) error {
	return nil
}
