package agent

import (
	"sync"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/logging"
	"github.com/hupe1980/agentcrew/model"
	"github.com/hupe1980/agentcrew/notify"
)

// InstanceFactoryOptions configures optional InstanceFactory collaborators.
type InstanceFactoryOptions struct {
	Logger logging.Logger
}

// InstanceFactory constructs fresh agent units for exactly one execution
// context. A new factory is built for every Supervisor.Execute call and never
// stored in package state, cached, or keyed by user id: two contexts always
// get two factories, which is the mechanism that prevents cross-user state
// leakage. The invariant holds under concurrent construction from goroutines
// handling different users.
type InstanceFactory struct {
	catalog *Catalog
	ec      *core.ExecutionContext
	logger  logging.Logger

	mu         sync.Mutex
	configured bool
	emitter    *notify.RunEmitter
	llm        model.LLM
}

// NewInstanceFactory creates a factory bound to ec. Units it constructs
// receive the collaborators wired later via Configure.
func NewInstanceFactory(catalog *Catalog, ec *core.ExecutionContext, optFns ...func(o *InstanceFactoryOptions)) *InstanceFactory {
	opts := InstanceFactoryOptions{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &InstanceFactory{
		catalog: catalog,
		ec:      ec,
		logger:  opts.Logger,
	}
}

// Configure wires the run-bound notification emitter and the LLM handle that
// every unit created by this factory will use. It is idempotent: the first
// call wins and later calls are ignored, so collaborators cannot be swapped
// mid-run.
func (f *InstanceFactory) Configure(emitter *notify.RunEmitter, llm model.LLM) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.configured {
		f.logger.Debug("agent factory already configured, ignoring", "run_id", f.ec.RunID())
		return
	}
	f.emitter = emitter
	f.llm = llm
	f.configured = true
}

// Configured reports whether Configure has been called.
func (f *InstanceFactory) Configured() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.configured
}

// Context returns the execution context this factory is bound to.
func (f *InstanceFactory) Context() *core.ExecutionContext { return f.ec }

// CreateInstance constructs a fresh unit for the factory's context. Every
// call returns a new instance; units are never pooled or reused. Unknown
// names fail with *core.UnknownAgentError, which callers treat as
// non-retryable.
func (f *InstanceFactory) CreateInstance(name string) (core.AgentUnit, error) {
	reg, ok := f.catalog.Get(name)
	if !ok {
		return nil, &core.UnknownAgentError{Name: name}
	}

	f.mu.Lock()
	deps := UnitDeps{Emitter: f.emitter, LLM: f.llm, Logger: f.logger}
	f.mu.Unlock()

	f.logger.Debug("creating agent instance",
		"agent", name,
		"user_id", f.ec.UserID(),
		"run_id", f.ec.RunID(),
	)

	return reg.New(deps), nil
}
