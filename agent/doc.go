// Package agent contains the agent catalog, the per-context instance factory
// and the built-in agent units that form the default execution pipeline in
// AgentCrew. The package focuses on three concerns:
//
//  1. Registry plumbing (Catalog, Registration) mapping logical agent names
//     to constructors and dependency declarations
//  2. Isolation plumbing (InstanceFactory): one factory per execution
//     context, never cached, so concurrent users cannot share unit state
//  3. Concrete units (TriageUnit, DataGatheringUnit, OptimizationUnit,
//     AnalysisUnit, ReportingUnit) embedding BaseUnit
//
// Design principles:
//   - No hidden global state: factories are constructed per run and wired
//     explicitly with a run-bound emitter and an LLM handle
//   - Resilience: units tolerate missing upstream data and degrade to
//     deterministic behavior when the LLM is absent or failing
//   - Observability: every unit reports progress through its notification
//     emitter (thinking steps, tool execution, completion)
//
// Execution model:
//   - A unit's Execute receives the run's *core.ExecutionContext plus the
//     input map accumulated from earlier pipeline stages
//   - Units return domain failures as failed AgentResults; only
//     infrastructure problems (notification delivery) surface as errors
//
// The package intentionally keeps ordering policy (pipeline), engine
// lifecycle (engine) and transport concerns (notify) in their respective
// packages to avoid cyclic deps.
package agent
