package engine

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/agentcrew/agent"
	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/logging"
	"github.com/hupe1980/agentcrew/model"
	"github.com/hupe1980/agentcrew/notify"
	"github.com/hupe1980/agentcrew/routing"
)

// Options configures a UserExecutionEngine using the functional options
// pattern.
type Options struct {
	// Sink delivers lifecycle events for this run. Nil drops all events.
	Sink core.NotificationSink

	// LLM is handed to every unit the engine's factory constructs. May be
	// nil, in which case units fall back to deterministic behavior.
	LLM model.LLM

	// DecorateRouter wraps the engine's base router with resilience layers
	// such as retries and circuit breaking. Nil routes plainly.
	DecorateRouter func(base routing.Router) routing.Router

	// Hooks observe every stage the engine executes, in registration order.
	Hooks []StageHook

	// Logger provides structured logging. Defaults to NoOp if nil.
	Logger logging.Logger
}

// UserExecutionEngine runs resolved pipeline stages for exactly one execution
// context and aggregates their results.
//
// Construction binds three things for the lifetime of the engine:
//
//   - The ExecutionContext identifying the user, thread and run
//   - A fresh agent.InstanceFactory built for that context (never shared,
//     never cached; this is the mechanism that isolates concurrent users)
//   - A notification emitter bound to the context's run id
//
// The engine executes one stage per ExecuteAgentPipeline call; multi-stage
// orchestration (ordering, carry-forward of stage outputs, lifecycle events)
// lives in the supervisor, which calls this once per resolved stage and
// guarantees Cleanup runs on every exit path.
//
// Concurrency model: engines are not shared. Each run gets its own engine in
// its own goroutine, so the engine has no cross-request locks to hold while
// agents block on LLM calls or notification delivery. The internal mutex only
// guards result aggregation.
type UserExecutionEngine struct {
	ec      *core.ExecutionContext
	factory *agent.InstanceFactory
	emitter *notify.RunEmitter
	router  routing.Router
	hooks   []StageHook
	logger  logging.Logger

	mu      sync.Mutex
	results []core.AgentResult

	cleanupOnce sync.Once
}

// New constructs an engine bound to ec. The agent instance factory is created
// here, per call, and configured with the run-bound emitter and the LLM
// handle. Two calls always produce two factories, even under concurrent
// construction for different users.
func New(ec *core.ExecutionContext, catalog *agent.Catalog, optFns ...func(o *Options)) *UserExecutionEngine {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	emitter := notify.NewRunEmitter(opts.Sink, ec.RunID())

	factory := agent.NewInstanceFactory(catalog, ec, func(o *agent.InstanceFactoryOptions) {
		o.Logger = opts.Logger
	})
	factory.Configure(emitter, opts.LLM)

	var router routing.Router = routing.NewAgentRouter(factory, func(o *routing.AgentRouterOptions) {
		o.Logger = opts.Logger
	})
	if opts.DecorateRouter != nil {
		router = opts.DecorateRouter(router)
	}

	return &UserExecutionEngine{
		ec:      ec,
		factory: factory,
		emitter: emitter,
		router:  router,
		hooks:   opts.Hooks,
		logger:  opts.Logger,
	}
}

// Context returns the execution context the engine is bound to.
func (e *UserExecutionEngine) Context() *core.ExecutionContext { return e.ec }

// Factory returns the engine's per-context instance factory.
func (e *UserExecutionEngine) Factory() *agent.InstanceFactory { return e.factory }

// Emitter returns the run-bound notification emitter. The supervisor emits
// run-level lifecycle events through it so stage and run events share one
// binding.
func (e *UserExecutionEngine) Emitter() *notify.RunEmitter { return e.emitter }

// ExecuteAgentPipeline runs a single resolved stage: the unit is constructed
// through the factory, routed (optionally through resilience decorators),
// and the normalized result is recorded for aggregation and announced as an
// agent_completed or agent_error event.
//
// Stage-level failures come back as failed results with a nil error. A
// non-nil error means the run itself must stop: a lifecycle event could not
// be delivered or the context was cancelled.
func (e *UserExecutionEngine) ExecuteAgentPipeline(ctx context.Context, agentName string, input map[string]any) (core.AgentResult, error) {
	start := time.Now()

	e.logger.Debug("executing pipeline stage",
		"agent", agentName,
		"user_id", e.ec.UserID(),
		"run_id", e.ec.RunID(),
	)

	res, err := e.routeStage(ctx, agentName, input)
	if err != nil {
		return core.AgentResult{}, err
	}

	res = res.WithDuration(time.Since(start))
	e.record(res)

	for _, h := range e.hooks {
		h.AfterStage(ctx, e.ec, res)
	}

	if err := e.emitStageOutcome(ctx, res); err != nil {
		return res, err
	}

	e.appendAuditEvent(ctx, res)

	return res, nil
}

// FailStage records a stage failure declared by the orchestrator without
// routing to the agent, e.g. when a dependency check rejects the stage. The
// failed result flows through the same recording, notification and audit
// path as routed stages. The returned error is non-nil only for delivery
// failures.
func (e *UserExecutionEngine) FailStage(ctx context.Context, agentName string, cause error) (core.AgentResult, error) {
	res := core.NewAgentErrorResult(agentName, cause)
	e.record(res)

	for _, h := range e.hooks {
		h.AfterStage(ctx, e.ec, res)
	}

	if err := e.emitStageOutcome(ctx, res); err != nil {
		return res, err
	}

	e.appendAuditEvent(ctx, res)

	return res, nil
}

// routeStage applies the before hooks and routes the call. Failures that
// abort only the stage come back as failed results with a nil error.
func (e *UserExecutionEngine) routeStage(ctx context.Context, agentName string, input map[string]any) (core.AgentResult, error) {
	for _, h := range e.hooks {
		if err := h.BeforeStage(ctx, e.ec, agentName, input); err != nil {
			e.logger.Warn("stage vetoed by hook",
				"agent", agentName,
				"run_id", e.ec.RunID(),
				"error", err.Error(),
			)
			return core.NewAgentErrorResult(agentName, err), nil
		}
	}

	res, err := e.router.Route(ctx, agentName, input)
	if err != nil {
		if !core.IsUnknownAgent(err) {
			return core.AgentResult{}, err
		}
		// Unknown names abort the stage, not the run.
		e.logger.Warn("execution order names unknown agent", "agent", agentName, "run_id", e.ec.RunID())
		return core.NewAgentErrorResult(agentName, err), nil
	}

	return res, nil
}

// Results returns the recorded stage results in execution order.
func (e *UserExecutionEngine) Results() []core.AgentResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]core.AgentResult, len(e.results))
	copy(out, e.results)
	return out
}

// Cleanup releases the engine's run-bound resources, closing the notification
// emitter. It is idempotent and never fails; callers defer it immediately
// after construction so it runs on every exit path, error paths included.
// Agents racing the shutdown with late emissions hit the closed emitter and
// are dropped instead of producing spurious delivery errors.
func (e *UserExecutionEngine) Cleanup() {
	e.cleanupOnce.Do(func() {
		e.emitter.Close()
		e.logger.Debug("engine cleanup complete",
			"user_id", e.ec.UserID(),
			"run_id", e.ec.RunID(),
		)
	})
}

func (e *UserExecutionEngine) record(res core.AgentResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.results = append(e.results, res)
}

func (e *UserExecutionEngine) emitStageOutcome(ctx context.Context, res core.AgentResult) error {
	if res.Success {
		return e.emitter.AgentCompleted(ctx, res.AgentName, res.Data, res.DurationMS())
	}
	return e.emitter.AgentError(ctx, res.AgentName, res.Error, map[string]any{
		"duration_ms": res.DurationMS(),
	})
}

// appendAuditEvent persists the stage outcome to the thread's session
// history. The audit trail supplements the run, so a failed write is logged
// rather than escalated.
func (e *UserExecutionEngine) appendAuditEvent(ctx context.Context, res core.AgentResult) {
	if !e.ec.HasStore() {
		return
	}

	var ev core.Event
	if res.Success {
		ev = core.NewAgentCompletedEvent(e.ec.RunID(), res.AgentName, res.Data, res.DurationMS())
	} else {
		ev = core.NewAgentErrorEvent(e.ec.RunID(), res.AgentName, res.Error, map[string]any{"duration_ms": res.DurationMS()})
	}

	if err := e.ec.Store().AppendEvent(ctx, e.ec.ThreadID(), ev); err != nil {
		e.logger.Warn("failed to append stage event to session",
			"run_id", e.ec.RunID(),
			"agent", res.AgentName,
			"error", err.Error(),
		)
	}
}
