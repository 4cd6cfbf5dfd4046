package pipeline

import (
	"strings"

	"github.com/hupe1980/agentcrew/agent"
	"github.com/hupe1980/agentcrew/core"
)

// TriageOutcome is the classification a completed triage stage produced:
// which domain intent the request expresses and whether it carries enough
// data to act on directly.
type TriageOutcome struct {
	PrimaryIntent   string
	Confidence      float64
	DataSufficiency string
}

// ParseTriageOutcome extracts the classification from a triage stage result.
// It returns nil when the stage failed or the payload lacks a usable
// classification, which callers treat the same as "triage never ran" and
// resolve the fallback order instead.
func ParseTriageOutcome(res core.AgentResult) *TriageOutcome {
	if !res.Success || res.Data == nil {
		return nil
	}

	intent, ok := res.Data[agent.TriageKeyIntent].(map[string]any)
	if !ok {
		return nil
	}

	primary, _ := intent[agent.TriageKeyPrimaryIntent].(string)
	primary = strings.ToLower(strings.TrimSpace(primary))
	if primary == "" {
		return nil
	}

	sufficiency, _ := res.Data[agent.TriageKeySufficiency].(string)
	sufficiency = strings.ToLower(strings.TrimSpace(sufficiency))
	if sufficiency != agent.SufficiencySufficient && sufficiency != agent.SufficiencyInsufficient {
		return nil
	}

	confidence, _ := intent[agent.TriageKeyConfidence].(float64)

	return &TriageOutcome{
		PrimaryIntent:   primary,
		Confidence:      confidence,
		DataSufficiency: sufficiency,
	}
}

// ResolverOptions configures a Resolver instance.
type ResolverOptions struct {
	// IntentAgents maps a triage primary intent to the domain agent that
	// handles it. Intents absent from the table resolve to DefaultDomainAgent.
	IntentAgents map[string]string

	// DefaultDomainAgent handles unknown intents and substitutes for mapped
	// agents missing from the catalog.
	DefaultDomainAgent string

	// TriageAgent, DataGatheringAgent and ReportingAgent name the structural
	// stages of every resolved order.
	TriageAgent        string
	DataGatheringAgent string
	ReportingAgent     string
}

// Resolver computes execution orders from triage outcomes. Resolution is
// deterministic and side-effect free; the same outcome against the same
// catalog always yields the same order.
type Resolver struct {
	catalog core.AgentCatalog
	opts    ResolverOptions
}

// NewResolver creates a resolver over the given catalog.
func NewResolver(catalog core.AgentCatalog, optFns ...func(o *ResolverOptions)) *Resolver {
	opts := ResolverOptions{
		IntentAgents: map[string]string{
			agent.IntentOptimization: agent.AgentOptimization,
			agent.IntentAnalysis:     agent.AgentAnalysis,
		},
		DefaultDomainAgent: agent.AgentAnalysis,
		TriageAgent:        agent.AgentTriage,
		DataGatheringAgent: agent.AgentDataGathering,
		ReportingAgent:     agent.AgentReporting,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Resolver{catalog: catalog, opts: opts}
}

// Resolve computes the ordered stage sequence for a run. A nil outcome
// (triage failed, was skipped, or produced garbage) yields the fallback
// order: every required agent from the catalog. Either way the result is
// deduplicated, non-empty and ends with the reporting stage.
func (r *Resolver) Resolve(outcome *TriageOutcome) []string {
	if outcome == nil {
		return r.terminate(r.catalog.RequiredAgentNames())
	}

	order := []string{r.opts.TriageAgent}

	if outcome.DataSufficiency == agent.SufficiencyInsufficient && r.catalog.Has(r.opts.DataGatheringAgent) {
		order = append(order, r.opts.DataGatheringAgent)
	}

	order = append(order, r.domainAgent(outcome.PrimaryIntent))

	return r.terminate(order)
}

// TriageAgent returns the configured name of the classification stage.
func (r *Resolver) TriageAgent() string { return r.opts.TriageAgent }

// ReportingAgent returns the configured name of the terminal stage.
func (r *Resolver) ReportingAgent() string { return r.opts.ReportingAgent }

// CanExecute reports whether every declared prerequisite of the named agent
// appears in the completed set, and which are missing when not. Agents with
// no declared dependencies always may run.
func (r *Resolver) CanExecute(name string, completed map[string]bool) (bool, []string) {
	var missing []string
	for _, dep := range r.catalog.Dependencies(name) {
		if !completed[dep] {
			missing = append(missing, dep)
		}
	}

	return len(missing) == 0, missing
}

// domainAgent maps an intent to its catalog agent, substituting the default
// domain agent for unknown intents and for mapped agents the catalog lacks.
func (r *Resolver) domainAgent(intent string) string {
	name, ok := r.opts.IntentAgents[intent]
	if !ok || !r.catalog.Has(name) {
		return r.opts.DefaultDomainAgent
	}

	return name
}

// terminate deduplicates the order preserving first occurrence and moves the
// reporting stage to the end. The result is never empty: at minimum it is the
// reporting stage alone.
func (r *Resolver) terminate(order []string) []string {
	out := make([]string, 0, len(order)+1)
	seen := make(map[string]bool, len(order)+1)

	for _, name := range order {
		if name == r.opts.ReportingAgent || name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}

	return append(out, r.opts.ReportingAgent)
}
