// Package agentcrew provides a supervisor-driven orchestration engine for
// multi-agent chat backends. A Supervisor accepts one ExecutionContext per
// user request, constructs an isolated execution engine for it, resolves
// which agent stages to run from a triage classification, and returns a
// stable result envelope while streaming lifecycle events to a notification
// sink. Most applications interact with this package by:
//  1. Creating a Supervisor via New() (optionally overriding the catalog,
//     LLM capability, notification sink and session store)
//  2. Building a core.ExecutionContext per incoming request
//  3. Calling Execute (or ExecuteBatch for independent concurrent requests)
//
// Per-user isolation is the package's core correctness property: every
// Execute call builds a fresh agent instance factory and engine, so
// concurrent runs never share mutable state. Defaults are safe for local
// development and testing; production deployments supply a durable session
// store, a real LLM adapter and a structured logger.
package agentcrew

import (
	"time"

	"github.com/hupe1980/agentcrew/agent"
	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/engine"
	"github.com/hupe1980/agentcrew/logging"
	"github.com/hupe1980/agentcrew/model"
	"github.com/hupe1980/agentcrew/pipeline"
	"github.com/hupe1980/agentcrew/routing"
	"github.com/hupe1980/agentcrew/session"
)

// Options configures a Supervisor.
type Options struct {
	// Catalog registers the constructible agent units. Defaults to the
	// built-in pipeline (triage, data gathering, optimization, analysis,
	// reporting).
	Catalog *agent.Catalog

	// LLM is the shared language model capability handed to every unit. Nil
	// is valid: units degrade to deterministic behavior.
	LLM model.LLM

	// Sink receives lifecycle notifications for every run. Defaults to a
	// no-op sink.
	Sink core.NotificationSink

	// Store is attached to the contexts the legacy Run entry point
	// constructs. Execute callers attach their own store per context.
	// Defaults to an in-memory store.
	Store core.SessionStore

	// Hooks observe (and may veto) every pipeline stage.
	Hooks []engine.StageHook

	// MaxRetryAttempts bounds routing attempts per stage, first call
	// included.
	MaxRetryAttempts int

	// RetryBackoffBase is the backoff before the first retry; it doubles per
	// attempt.
	RetryBackoffBase time.Duration

	// BreakerThreshold is the consecutive-failure count that opens an
	// agent's circuit.
	BreakerThreshold int

	// BreakerCooldown is how long an open circuit rejects calls before
	// admitting a probe.
	BreakerCooldown time.Duration

	// Breakers is the process-wide circuit breaker state shared across
	// supervisors. A fresh registry is created when nil, scoping breaker
	// state to this Supervisor.
	Breakers *routing.BreakerRegistry

	// MaxConcurrentExecutions limits how many ExecuteBatch contexts run
	// simultaneously. Zero means unlimited.
	MaxConcurrentExecutions int

	// Resolver overrides resolver tuning, e.g. a custom intent table.
	Resolver []func(o *pipeline.ResolverOptions)

	// Logger defaults to logging.NoOpLogger.
	Logger logging.Logger
}

// Supervisor orchestrates multi-agent executions. It holds only read-only or
// internally synchronized state (catalog, resolver, LLM handle, breaker
// registry) and is safe for concurrent use: all per-run mutable state lives
// in the engine each Execute call constructs.
type Supervisor struct {
	opts     Options
	catalog  *agent.Catalog
	resolver *pipeline.Resolver
	logger   logging.Logger
}

// New creates a Supervisor with optional overrides. Any unset collaborator is
// initialized with a safe default.
func New(optFns ...func(o *Options)) *Supervisor {
	opts := Options{
		Catalog:          agent.DefaultCatalog(),
		Store:            session.NewInMemoryStore(),
		MaxRetryAttempts: routing.DefaultMaxAttempts,
		RetryBackoffBase: routing.DefaultBackoffBase,
		BreakerThreshold: routing.DefaultBreakerThreshold,
		BreakerCooldown:  routing.DefaultBreakerCooldown,
		Logger:           logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Catalog == nil {
		opts.Catalog = agent.DefaultCatalog()
	}
	if opts.Breakers == nil {
		opts.Breakers = routing.NewBreakerRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Supervisor{
		opts:     opts,
		catalog:  opts.Catalog,
		resolver: pipeline.NewResolver(opts.Catalog, opts.Resolver...),
		logger:   opts.Logger,
	}
}

// Create builds a Supervisor from the two collaborators every deployment
// supplies: the LLM capability and the notification sink.
func Create(llm model.LLM, sink core.NotificationSink) *Supervisor {
	return New(func(o *Options) {
		o.LLM = llm
		o.Sink = sink
	})
}

// Breakers returns the circuit breaker registry, so deployments running
// several supervisors can share one.
func (s *Supervisor) Breakers() *routing.BreakerRegistry { return s.opts.Breakers }

// decorateRouter wraps the engine's base router with the resilience chain:
// retry innermost, circuit breaker outermost so an open circuit suppresses
// whole retry storms, not single attempts.
func (s *Supervisor) decorateRouter(base routing.Router) routing.Router {
	retry := routing.NewRetryPolicy(base, func(o *routing.RetryPolicyOptions) {
		o.MaxAttempts = s.opts.MaxRetryAttempts
		o.BackoffBase = s.opts.RetryBackoffBase
		o.Logger = s.logger
	})

	return routing.NewCircuitBreaker(retry, func(o *routing.CircuitBreakerOptions) {
		o.Threshold = s.opts.BreakerThreshold
		o.Cooldown = s.opts.BreakerCooldown
		o.Registry = s.opts.Breakers
		o.Logger = s.logger
	})
}
