// Package core provides the foundational domain types and interfaces used by
// AgentCrew. It defines the core abstractions for:
//
//   - ExecutionContext (immutable per-run identity and correlation data)
//   - AgentUnit (units of orchestrated work, instantiated fresh per run)
//   - AgentResult (normalized success/failure outcome of a unit execution)
//   - Events (immutable run lifecycle records streamed to notification sinks)
//   - Sessions (durable conversational containers with event history)
//
// The package intentionally keeps implementation concerns (persistence,
// engine orchestration, concrete agents, delivery transports) out of scope,
// exposing small interfaces to enable custom backends and extensions. All
// exported identifiers include concise documentation to aid discoverability
// and external consumption.
package core
