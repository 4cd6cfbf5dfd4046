package routing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/logging"
)

// Breaker defaults. The short cooldown keeps test suites fast; production
// deployments configure this per SLA.
const (
	DefaultBreakerThreshold = 5
	DefaultBreakerCooldown  = 100 * time.Millisecond
)

// breakerState tracks consecutive failures and the open window start for one
// agent name. openSince is zero while the circuit is closed.
type breakerState struct {
	failureCount int
	openSince    time.Time
}

// BreakerRegistry holds circuit state per agent name. One registry is shared
// by every run routed through the same supervisor, which is how repeated
// failures in one user's runs protect all other users from a broken agent.
// All access is internally locked.
type BreakerRegistry struct {
	mu     sync.Mutex
	states map[string]*breakerState
}

// NewBreakerRegistry creates an empty registry.
func NewBreakerRegistry() *BreakerRegistry {
	return &BreakerRegistry{states: make(map[string]*breakerState)}
}

// state returns the entry for name, creating it closed. Callers hold mu.
func (r *BreakerRegistry) state(name string) *breakerState {
	st, ok := r.states[name]
	if !ok {
		st = &breakerState{}
		r.states[name] = st
	}
	return st
}

// admit decides whether a call for name may proceed now. Crossing the failure
// threshold opens the circuit lazily: the first denied call starts the
// cooldown window. Once the window elapses a single probe is admitted, and
// its window is re-armed immediately so concurrent callers stay
// short-circuited while the probe is in flight.
func (r *BreakerRegistry) admit(name string, now time.Time, threshold int, cooldown time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.state(name)
	if st.failureCount < threshold {
		return true
	}
	if st.openSince.IsZero() {
		st.openSince = now
		return false
	}
	if now.Sub(st.openSince) < cooldown {
		return false
	}

	st.openSince = now

	return true
}

// record feeds a call outcome back into the state machine. Success closes the
// circuit completely; failure increments the counter and re-arms the cooldown
// window when one is active.
func (r *BreakerRegistry) record(name string, success bool, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.state(name)
	if success {
		st.failureCount = 0
		st.openSince = time.Time{}
		return
	}

	st.failureCount++
	if !st.openSince.IsZero() {
		st.openSince = now
	}
}

// FailureCount returns the consecutive failure count recorded for name.
func (r *BreakerRegistry) FailureCount(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state(name).failureCount
}

// CircuitBreakerOptions configures a CircuitBreaker.
type CircuitBreakerOptions struct {
	// Threshold is the consecutive failure count that opens the circuit.
	// Values below 1 are treated as 1.
	Threshold int
	// Cooldown is how long the circuit stays open before admitting a probe.
	Cooldown time.Duration
	// Registry is the shared per-agent state store. A private registry is
	// created when nil, scoping the breaker to one router chain.
	Registry *BreakerRegistry
	// Now is the clock, replaceable in tests.
	Now    func() time.Time
	Logger logging.Logger
}

// CircuitBreaker short-circuits routing to agents that keep failing. While a
// circuit is open, calls fail fast with a failed result and the wrapped
// router is never invoked.
type CircuitBreaker struct {
	next Router
	opts CircuitBreakerOptions
}

// Compile-time check.
var _ Router = (*CircuitBreaker)(nil)

// NewCircuitBreaker wraps next with per-agent-name circuit breaking.
func NewCircuitBreaker(next Router, optFns ...func(o *CircuitBreakerOptions)) *CircuitBreaker {
	opts := CircuitBreakerOptions{
		Threshold: DefaultBreakerThreshold,
		Cooldown:  DefaultBreakerCooldown,
		Now:       time.Now,
		Logger:    logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Registry == nil {
		opts.Registry = NewBreakerRegistry()
	}
	if opts.Threshold < 1 {
		opts.Threshold = 1
	}

	return &CircuitBreaker{next: next, opts: opts}
}

// Registry returns the breaker's state store, for sharing across chains.
func (b *CircuitBreaker) Registry() *BreakerRegistry { return b.opts.Registry }

// Route implements Router.
func (b *CircuitBreaker) Route(ctx context.Context, agentName string, input map[string]any) (core.AgentResult, error) {
	if !b.opts.Registry.admit(agentName, b.opts.Now(), b.opts.Threshold, b.opts.Cooldown) {
		countBreakerOpen(ctx, agentName)
		b.opts.Logger.Warn("circuit breaker open, short-circuiting",
			"agent", agentName,
			"failure_count", b.opts.Registry.FailureCount(agentName),
		)
		return core.NewAgentErrorResult(agentName, fmt.Errorf("circuit breaker open for %s", agentName)), nil
	}

	res, err := b.next.Route(ctx, agentName, input)
	if err != nil {
		// Control flow errors say nothing about the agent's health.
		return res, err
	}

	b.opts.Registry.record(agentName, res.Success, b.opts.Now())

	return res, nil
}
