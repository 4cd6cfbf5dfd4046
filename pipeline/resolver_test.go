package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcrew/agent"
	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/internal/testutil"
	"github.com/hupe1980/agentcrew/notify"
)

type stubUnit struct{ name string }

func (u stubUnit) Name() string { return u.name }

func (u stubUnit) Execute(_ context.Context, _ *core.ExecutionContext, _ map[string]any) (core.AgentResult, error) {
	return core.NewAgentResult(u.name, nil), nil
}

func stubRegistration(name string, required bool, dependsOn ...string) agent.Registration {
	return agent.Registration{
		Name:      name,
		Required:  required,
		DependsOn: dependsOn,
		New:       func(agent.UnitDeps) core.AgentUnit { return stubUnit{name: name} },
	}
}

func outcome(intent, sufficiency string) *TriageOutcome {
	return &TriageOutcome{PrimaryIntent: intent, Confidence: 0.9, DataSufficiency: sufficiency}
}

func TestResolver_FallbackOrderWhenTriageAbsent(t *testing.T) {
	resolver := NewResolver(agent.DefaultCatalog())

	order := resolver.Resolve(nil)

	assert.Equal(t, []string{agent.AgentTriage, agent.AgentAnalysis, agent.AgentReporting}, order)
}

func TestResolver_InsufficientDataInsertsGathering(t *testing.T) {
	resolver := NewResolver(agent.DefaultCatalog())

	order := resolver.Resolve(outcome(agent.IntentOptimization, agent.SufficiencyInsufficient))

	assert.Equal(t, []string{agent.AgentTriage, agent.AgentDataGathering, agent.AgentOptimization, agent.AgentReporting}, order)
}

func TestResolver_SufficientDataSkipsGathering(t *testing.T) {
	resolver := NewResolver(agent.DefaultCatalog())

	order := resolver.Resolve(outcome(agent.IntentOptimization, agent.SufficiencySufficient))

	assert.Equal(t, []string{agent.AgentTriage, agent.AgentOptimization, agent.AgentReporting}, order)
}

func TestResolver_UnknownIntentUsesDefaultDomainAgent(t *testing.T) {
	resolver := NewResolver(agent.DefaultCatalog())

	order := resolver.Resolve(outcome("billing", agent.SufficiencySufficient))

	assert.Equal(t, []string{agent.AgentTriage, agent.AgentAnalysis, agent.AgentReporting}, order)
}

func TestResolver_UncatalogedIntentAgentSubstitutesDefault(t *testing.T) {
	catalog := agent.NewCatalog()
	catalog.MustRegister(stubRegistration(agent.AgentTriage, true))
	catalog.MustRegister(stubRegistration(agent.AgentDataGathering, false, agent.AgentTriage))
	catalog.MustRegister(stubRegistration(agent.AgentAnalysis, true))
	catalog.MustRegister(stubRegistration(agent.AgentReporting, true))

	resolver := NewResolver(catalog)

	// Intent maps to the optimization agent, which this catalog lacks.
	order := resolver.Resolve(outcome(agent.IntentOptimization, agent.SufficiencySufficient))

	assert.Equal(t, []string{agent.AgentTriage, agent.AgentAnalysis, agent.AgentReporting}, order)
}

func TestResolver_ReportingAlwaysLast(t *testing.T) {
	catalog := agent.NewCatalog()
	catalog.MustRegister(stubRegistration(agent.AgentReporting, true))
	catalog.MustRegister(stubRegistration(agent.AgentTriage, true))

	resolver := NewResolver(catalog)

	// Registration order puts reporting first; the resolved order must not.
	order := resolver.Resolve(nil)

	require.NotEmpty(t, order)
	assert.Equal(t, []string{agent.AgentTriage, agent.AgentReporting}, order)
}

func TestResolver_EmptyCatalogStillResolvesReporting(t *testing.T) {
	resolver := NewResolver(agent.NewCatalog())

	order := resolver.Resolve(nil)

	assert.Equal(t, []string{agent.AgentReporting}, order)
}

func TestResolver_Deterministic(t *testing.T) {
	resolver := NewResolver(agent.DefaultCatalog())
	out := outcome(agent.IntentAnalysis, agent.SufficiencyInsufficient)

	first := resolver.Resolve(out)
	second := resolver.Resolve(out)

	assert.Equal(t, first, second)
	assert.Equal(t, agent.AgentReporting, first[len(first)-1])
}

func TestResolver_IntentTableOverride(t *testing.T) {
	catalog := agent.NewCatalog()
	catalog.MustRegister(stubRegistration(agent.AgentTriage, true))
	catalog.MustRegister(stubRegistration("billing", false))
	catalog.MustRegister(stubRegistration(agent.AgentAnalysis, true))
	catalog.MustRegister(stubRegistration(agent.AgentReporting, true))

	resolver := NewResolver(catalog, func(o *ResolverOptions) {
		o.IntentAgents["billing"] = "billing"
	})

	order := resolver.Resolve(outcome("billing", agent.SufficiencySufficient))

	assert.Equal(t, []string{agent.AgentTriage, "billing", agent.AgentReporting}, order)
}

func TestResolver_CanExecute(t *testing.T) {
	resolver := NewResolver(agent.DefaultCatalog())

	tests := []struct {
		name      string
		agentName string
		completed map[string]bool
		ok        bool
		missing   []string
	}{
		{
			name:      "no dependencies",
			agentName: agent.AgentTriage,
			completed: map[string]bool{},
			ok:        true,
		},
		{
			name:      "dependency satisfied",
			agentName: agent.AgentDataGathering,
			completed: map[string]bool{agent.AgentTriage: true},
			ok:        true,
		},
		{
			name:      "dependency missing",
			agentName: agent.AgentDataGathering,
			completed: map[string]bool{},
			ok:        false,
			missing:   []string{agent.AgentTriage},
		},
		{
			name:      "unknown agent has no dependencies",
			agentName: "nope",
			completed: map[string]bool{},
			ok:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, missing := resolver.CanExecute(tt.agentName, tt.completed)

			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.missing, missing)
		})
	}
}

func TestParseTriageOutcome(t *testing.T) {
	tests := []struct {
		name string
		res  core.AgentResult
		want *TriageOutcome
	}{
		{
			name: "valid classification",
			res: core.NewAgentResult(agent.AgentTriage, map[string]any{
				agent.TriageKeyIntent: map[string]any{
					agent.TriageKeyPrimaryIntent: "Optimization",
					agent.TriageKeyConfidence:    0.8,
				},
				agent.TriageKeySufficiency: "SUFFICIENT",
			}),
			want: &TriageOutcome{PrimaryIntent: "optimization", Confidence: 0.8, DataSufficiency: "sufficient"},
		},
		{
			name: "failed stage",
			res:  core.NewAgentErrorResult(agent.AgentTriage, errors.New("boom")),
			want: nil,
		},
		{
			name: "missing intent map",
			res: core.NewAgentResult(agent.AgentTriage, map[string]any{
				agent.TriageKeySufficiency: agent.SufficiencySufficient,
			}),
			want: nil,
		},
		{
			name: "blank primary intent",
			res: core.NewAgentResult(agent.AgentTriage, map[string]any{
				agent.TriageKeyIntent:      map[string]any{agent.TriageKeyPrimaryIntent: "  "},
				agent.TriageKeySufficiency: agent.SufficiencySufficient,
			}),
			want: nil,
		},
		{
			name: "invalid sufficiency",
			res: core.NewAgentResult(agent.AgentTriage, map[string]any{
				agent.TriageKeyIntent:      map[string]any{agent.TriageKeyPrimaryIntent: agent.IntentAnalysis},
				agent.TriageKeySufficiency: "maybe",
			}),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTriageOutcome(tt.res))
		})
	}
}

func TestParseTriageOutcome_FromTriageUnit(t *testing.T) {
	sink := testutil.NewRecordingSink()
	unit := agent.NewTriageUnit(agent.UnitDeps{Emitter: notify.NewRunEmitter(sink, "run-1")})
	ec := testutil.NewContextBuilder().UserRequest("optimize my database").Build()

	res, err := unit.Execute(context.Background(), ec, nil)
	require.NoError(t, err)

	parsed := ParseTriageOutcome(res)
	require.NotNil(t, parsed)
	assert.Equal(t, agent.IntentOptimization, parsed.PrimaryIntent)
	assert.Equal(t, agent.SufficiencyInsufficient, parsed.DataSufficiency)

	order := NewResolver(agent.DefaultCatalog()).Resolve(parsed)
	assert.Equal(t, []string{agent.AgentTriage, agent.AgentDataGathering, agent.AgentOptimization, agent.AgentReporting}, order)
}
