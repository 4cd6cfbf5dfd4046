package agent

import (
	"fmt"
	"sync"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/logging"
	"github.com/hupe1980/agentcrew/model"
	"github.com/hupe1980/agentcrew/notify"
)

// Logical names of the built-in agent units.
const (
	AgentTriage        = "triage"
	AgentDataGathering = "data_gathering"
	AgentOptimization  = "optimization"
	AgentAnalysis      = "analysis"
	AgentReporting     = "reporting"
)

// Roles assigned to the built-in units, carried in core.AgentInfo.
const (
	RoleClassifier = "classifier"
	RoleCollector  = "collector"
	RoleSpecialist = "specialist"
	RoleAggregator = "aggregator"
)

// UnitDeps carries the per-run collaborators injected into every unit a
// factory constructs. Emitter is already bound to the run id; LLM may be nil,
// in which case units fall back to deterministic behavior.
type UnitDeps struct {
	Emitter *notify.RunEmitter
	LLM     model.LLM
	Logger  logging.Logger
}

// Constructor builds a fresh unit instance for one run. Implementations must
// never return a shared or cached value: instance freshness is what keeps
// concurrent users isolated.
type Constructor func(deps UnitDeps) core.AgentUnit

// Registration describes one agent unit the catalog can construct.
type Registration struct {
	// Name is the logical agent name used in execution orders and events.
	Name string
	// Role categorizes the unit for events and logs.
	Role string
	// DependsOn lists agent names that must complete successfully before
	// this unit may execute. Consulted by pipeline dependency checks; units
	// without entries are always executable.
	DependsOn []string
	// Required marks units every run must include. The resolver's fallback
	// order is built from the required set.
	Required bool
	// New constructs a fresh instance.
	New Constructor
}

// Catalog is the process-wide registry of constructible agent units. It is
// populated once at bootstrap and read concurrently by every execution
// afterwards; Register is safe to call from multiple goroutines but intended
// for startup wiring only.
type Catalog struct {
	mu    sync.RWMutex
	order []string
	regs  map[string]Registration
}

// Compile-time check that Catalog satisfies the query surface resolvers use.
var _ core.AgentCatalog = (*Catalog)(nil)

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{regs: make(map[string]Registration)}
}

// Register adds a unit registration. It fails with a *core.ConfigurationError
// on an empty name, a nil constructor or a duplicate name.
func (c *Catalog) Register(reg Registration) error {
	if reg.Name == "" {
		return &core.ConfigurationError{Reason: "agent registration requires a name"}
	}
	if reg.New == nil {
		return &core.ConfigurationError{Reason: fmt.Sprintf("agent %q registration requires a constructor", reg.Name)}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.regs[reg.Name]; exists {
		return &core.ConfigurationError{Reason: fmt.Sprintf("agent %q is already registered", reg.Name)}
	}
	c.regs[reg.Name] = reg
	c.order = append(c.order, reg.Name)

	return nil
}

// MustRegister is Register that panics on error. For static bootstrap wiring.
func (c *Catalog) MustRegister(reg Registration) {
	if err := c.Register(reg); err != nil {
		panic(err)
	}
}

// Get returns the registration for name.
func (c *Catalog) Get(name string) (Registration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	reg, ok := c.regs[name]
	return reg, ok
}

// Has reports whether an agent with the given name is registered.
func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.regs[name]
	return ok
}

// AgentNames returns all registered agent names in registration order.
func (c *Catalog) AgentNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// RequiredAgentNames returns the names every run must include, in
// registration order. A default catalog always yields at least the triage
// and reporting stages.
func (c *Catalog) RequiredAgentNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for _, name := range c.order {
		if c.regs[name].Required {
			out = append(out, name)
		}
	}
	return out
}

// Dependencies returns the declared prerequisite agents for name. Unknown
// names return nil.
func (c *Catalog) Dependencies(name string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	reg, ok := c.regs[name]
	if !ok || len(reg.DependsOn) == 0 {
		return nil
	}
	out := make([]string, len(reg.DependsOn))
	copy(out, reg.DependsOn)
	return out
}

// DefaultCatalog registers the built-in pipeline units: triage classification,
// session data gathering, the optimization and analysis specialists, and the
// terminal reporting aggregator.
func DefaultCatalog() *Catalog {
	c := NewCatalog()

	c.MustRegister(Registration{
		Name:     AgentTriage,
		Role:     RoleClassifier,
		Required: true,
		New:      func(deps UnitDeps) core.AgentUnit { return NewTriageUnit(deps) },
	})
	c.MustRegister(Registration{
		Name:      AgentDataGathering,
		Role:      RoleCollector,
		DependsOn: []string{AgentTriage},
		New:       func(deps UnitDeps) core.AgentUnit { return NewDataGatheringUnit(deps) },
	})
	c.MustRegister(Registration{
		Name: AgentOptimization,
		Role: RoleSpecialist,
		New:  func(deps UnitDeps) core.AgentUnit { return NewOptimizationUnit(deps) },
	})
	c.MustRegister(Registration{
		Name:     AgentAnalysis,
		Role:     RoleSpecialist,
		Required: true,
		New:      func(deps UnitDeps) core.AgentUnit { return NewAnalysisUnit(deps) },
	})
	c.MustRegister(Registration{
		Name:     AgentReporting,
		Role:     RoleAggregator,
		Required: true,
		New:      func(deps UnitDeps) core.AgentUnit { return NewReportingUnit(deps) },
	})

	return c
}
