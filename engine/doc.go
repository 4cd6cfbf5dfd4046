// Package engine implements the per-run execution layer of the orchestration
// core.
//
// A UserExecutionEngine is constructed for exactly one ExecutionContext and
// lives for exactly one run. It owns the run's agent instance factory, its
// run-bound notification emitter, and the aggregation of stage results. The
// supervisor drives it: resolve an execution order, call
// ExecuteAgentPipeline once per stage, and finally Cleanup on every exit
// path.
//
// # Isolation
//
// Nothing in this package is shared between runs. The factory is created in
// New and never cached, so two concurrent users can never observe each
// other's agents, results, or emitter. Isolation is the design's correctness
// property; there is deliberately no coordination between engines.
//
// # Error Handling
//
//   - Stage-level failures (agent errors, panics, unknown agent names) are
//     recorded as failed results and the run continues degraded.
//   - Notification delivery failures and context cancellation return errors
//     and stop the run; operators must see transport problems immediately.
//   - Cleanup never fails and is safe to call any number of times.
package engine
