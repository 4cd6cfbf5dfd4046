package routing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcrew/core"
)

type step struct {
	res core.AgentResult
	err error
}

// scriptedRouter replays a fixed sequence of outcomes, repeating the last one
// once the script is exhausted, and counts how often it was invoked.
type scriptedRouter struct {
	mu    sync.Mutex
	calls int
	steps []step
}

func (r *scriptedRouter) Route(_ context.Context, _ string, _ map[string]any) (core.AgentResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.calls
	r.calls++
	if i >= len(r.steps) {
		i = len(r.steps) - 1
	}

	return r.steps[i].res, r.steps[i].err
}

func (r *scriptedRouter) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func failedStep(agentName string) step {
	return step{res: core.NewAgentErrorResult(agentName, errors.New("boom"))}
}

func okStep(agentName string) step {
	return step{res: core.NewAgentResult(agentName, nil)}
}

func fastRetry(o *RetryPolicyOptions) {
	o.MaxAttempts = 3
	o.BackoffBase = time.Millisecond
}

func TestRetryPolicy_FailTwiceThenSucceed(t *testing.T) {
	base := &scriptedRouter{steps: []step{failedStep("optimization"), failedStep("optimization"), okStep("optimization")}}
	policy := NewRetryPolicy(base, fastRetry)

	res, err := policy.Route(context.Background(), "optimization", nil)

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, base.Calls())
}

func TestRetryPolicy_ReturnsLastFailureWhenExhausted(t *testing.T) {
	base := &scriptedRouter{steps: []step{failedStep("optimization")}}
	policy := NewRetryPolicy(base, fastRetry)

	res, err := policy.Route(context.Background(), "optimization", nil)

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "boom")
	assert.Equal(t, 3, base.Calls())
}

func TestRetryPolicy_StopsOnFirstSuccess(t *testing.T) {
	base := &scriptedRouter{steps: []step{okStep("analysis")}}
	policy := NewRetryPolicy(base, fastRetry)

	res, err := policy.Route(context.Background(), "analysis", nil)

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, base.Calls())
}

func TestRetryPolicy_PassesControlFlowErrorsThrough(t *testing.T) {
	deliveryErr := &core.NotificationDeliveryError{Kind: core.EventAgentStarted, Err: errors.New("socket closed")}
	base := &scriptedRouter{steps: []step{{err: deliveryErr}}}
	policy := NewRetryPolicy(base, fastRetry)

	_, err := policy.Route(context.Background(), "analysis", nil)

	require.Error(t, err)
	assert.True(t, core.IsNotificationDelivery(err))
	assert.Equal(t, 1, base.Calls())
}

func TestRetryPolicy_ContextCancellationStopsBackoff(t *testing.T) {
	base := &scriptedRouter{steps: []step{failedStep("analysis")}}
	policy := NewRetryPolicy(base, func(o *RetryPolicyOptions) {
		o.MaxAttempts = 3
		o.BackoffBase = time.Hour
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := policy.Route(ctx, "analysis", nil)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, base.Calls())
}

func TestRetryPolicy_MinimumOneAttempt(t *testing.T) {
	base := &scriptedRouter{steps: []step{failedStep("analysis")}}
	policy := NewRetryPolicy(base, func(o *RetryPolicyOptions) {
		o.MaxAttempts = 0
	})

	res, err := policy.Route(context.Background(), "analysis", nil)

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 1, base.Calls())
}
