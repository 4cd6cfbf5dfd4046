package routing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcrew/core"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	base := &scriptedRouter{steps: []step{failedStep("optimization")}}
	cb := NewCircuitBreaker(base, func(o *CircuitBreakerOptions) {
		o.Threshold = 2
		o.Cooldown = time.Minute
	})

	for i := 0; i < 2; i++ {
		res, err := cb.Route(context.Background(), "optimization", nil)
		require.NoError(t, err)
		assert.False(t, res.Success)
	}
	assert.Equal(t, 2, base.Calls())

	// Third call short-circuits without touching the wrapped router.
	res, err := cb.Route(context.Background(), "optimization", nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "circuit breaker open for optimization")
	assert.Equal(t, 2, base.Calls())
}

func TestCircuitBreaker_SuccessfulProbeCloses(t *testing.T) {
	now := time.Unix(1000, 0)
	base := &scriptedRouter{steps: []step{failedStep("optimization"), failedStep("optimization"), okStep("optimization")}}
	cb := NewCircuitBreaker(base, func(o *CircuitBreakerOptions) {
		o.Threshold = 2
		o.Cooldown = 100 * time.Millisecond
		o.Now = func() time.Time { return now }
	})

	cb.Route(context.Background(), "optimization", nil)
	cb.Route(context.Background(), "optimization", nil)

	// Opens: this call arms the cooldown window and fails fast.
	res, _ := cb.Route(context.Background(), "optimization", nil)
	assert.Contains(t, res.Error, "circuit breaker open")
	assert.Equal(t, 2, base.Calls())

	now = now.Add(150 * time.Millisecond)

	// Cooldown elapsed: exactly one probe goes through and succeeds.
	res, err := cb.Route(context.Background(), "optimization", nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, base.Calls())
	assert.Equal(t, 0, cb.Registry().FailureCount("optimization"))

	// Closed again: calls pass through normally.
	res, err = cb.Route(context.Background(), "optimization", nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 4, base.Calls())
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	now := time.Unix(1000, 0)
	base := &scriptedRouter{steps: []step{failedStep("optimization")}}
	cb := NewCircuitBreaker(base, func(o *CircuitBreakerOptions) {
		o.Threshold = 2
		o.Cooldown = 100 * time.Millisecond
		o.Now = func() time.Time { return now }
	})

	cb.Route(context.Background(), "optimization", nil)
	cb.Route(context.Background(), "optimization", nil)
	cb.Route(context.Background(), "optimization", nil) // arms the window
	require.Equal(t, 2, base.Calls())

	now = now.Add(150 * time.Millisecond)

	// Probe runs and fails, re-arming the window.
	res, err := cb.Route(context.Background(), "optimization", nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 3, base.Calls())
	assert.Equal(t, 3, cb.Registry().FailureCount("optimization"))

	// Still within the re-armed cooldown: fail fast again.
	res, _ = cb.Route(context.Background(), "optimization", nil)
	assert.Contains(t, res.Error, "circuit breaker open")
	assert.Equal(t, 3, base.Calls())

	now = now.Add(150 * time.Millisecond)

	// Next window admits another probe.
	cb.Route(context.Background(), "optimization", nil)
	assert.Equal(t, 4, base.Calls())
}

func TestCircuitBreaker_StatePerAgentName(t *testing.T) {
	base := &scriptedRouter{steps: []step{failedStep("optimization"), failedStep("optimization"), okStep("analysis")}}
	cb := NewCircuitBreaker(base, func(o *CircuitBreakerOptions) {
		o.Threshold = 2
		o.Cooldown = time.Minute
	})

	cb.Route(context.Background(), "optimization", nil)
	cb.Route(context.Background(), "optimization", nil)

	// optimization is open, analysis is unaffected.
	res, err := cb.Route(context.Background(), "analysis", nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, base.Calls())
}

func TestCircuitBreaker_SharedRegistryProtectsAllChains(t *testing.T) {
	registry := NewBreakerRegistry()
	baseA := &scriptedRouter{steps: []step{failedStep("optimization")}}
	baseB := &scriptedRouter{steps: []step{okStep("optimization")}}

	threshold2 := func(o *CircuitBreakerOptions) {
		o.Threshold = 2
		o.Cooldown = time.Minute
		o.Registry = registry
	}
	cbA := NewCircuitBreaker(baseA, threshold2)
	cbB := NewCircuitBreaker(baseB, threshold2)

	cbA.Route(context.Background(), "optimization", nil)
	cbA.Route(context.Background(), "optimization", nil)

	// Failures recorded through A short-circuit B as well.
	res, err := cbB.Route(context.Background(), "optimization", nil)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "circuit breaker open")
	assert.Equal(t, 0, baseB.Calls())
}

func TestCircuitBreaker_ControlFlowErrorsNotCounted(t *testing.T) {
	deliveryErr := &core.NotificationDeliveryError{Kind: core.EventAgentThinking, Err: errors.New("socket closed")}
	base := &scriptedRouter{steps: []step{{err: deliveryErr}}}
	cb := NewCircuitBreaker(base, func(o *CircuitBreakerOptions) {
		o.Threshold = 1
	})

	_, err := cb.Route(context.Background(), "analysis", nil)
	require.Error(t, err)
	assert.True(t, core.IsNotificationDelivery(err))
	assert.Equal(t, 0, cb.Registry().FailureCount("analysis"))

	// The circuit stayed closed, so the next call still reaches the router.
	cb.Route(context.Background(), "analysis", nil)
	assert.Equal(t, 2, base.Calls())
}
