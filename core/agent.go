package core

import "context"

// AgentUnit defines the interface every orchestrated agent implements.
//
// Agent units are the primary processing stages of a run. They receive the
// run's ExecutionContext plus the input data accumulated from earlier stages,
// do their work (calling an LLM, gathering data, computing a report), and
// return a normalized AgentResult.
//
// Implementations must:
//   - Respect context cancellation for graceful shutdown
//   - Report progress through their configured notification emitter
//   - Never be shared across runs: one instance serves exactly one execution
//     context, which is what keeps concurrent users isolated
//
// Execute returns an error only for infrastructure-level failures; domain
// failures are expressed as a failed AgentResult so routing layers can apply
// retry and fallback policies uniformly.
type AgentUnit interface {
	Name() string
	Execute(ctx context.Context, ec *ExecutionContext, input map[string]any) (AgentResult, error)
}

// AgentCatalog is the read-only query surface over the set of registered
// agents. Order resolvers depend on it rather than on a concrete registry so
// tests can substitute minimal fixtures.
type AgentCatalog interface {
	// Has reports whether an agent with the given name is registered.
	Has(name string) bool
	// AgentNames returns all registered agent names in registration order.
	AgentNames() []string
	// RequiredAgentNames returns the names every run must include.
	RequiredAgentNames() []string
	// Dependencies returns the agent names that must complete before the
	// named agent may execute. Unknown names return nil.
	Dependencies(name string) []string
}

// AgentInfo carries identifying details about an agent unit used in events
// and logs. Name is the external identifier; Role categorizes the unit's
// place in a run (e.g. "triage", "worker", "reporting").
type AgentInfo struct{ Name, Role string }
