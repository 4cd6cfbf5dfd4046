// Package routing moves single stage invocations from the execution engine
// to agent units, with optional resilience layered on top.
//
// The base AgentRouter converts every agent-level failure, panics included,
// into a failed core.AgentResult so orchestration never branches on thrown
// errors. The error return is reserved for conditions that must stop the run
// instead of degrading it: unknown agent names, notification delivery
// failures and context cancellation. Those pass through every decorator
// untouched.
//
// RetryPolicy and CircuitBreaker are explicit wrapper types composed at
// construction time:
//
//	base := routing.NewAgentRouter(factory)
//	router := routing.NewCircuitBreaker(routing.NewRetryPolicy(base), func(o *routing.CircuitBreakerOptions) {
//	    o.Registry = sharedRegistry
//	})
//
// Breaker state is the one structure deliberately shared across runs; it is
// internally locked so concurrent executions for different users can feed the
// same per-agent failure counters.
package routing
