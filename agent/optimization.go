package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/internal/util"
)

// Result data keys written by the domain specialist units.
const (
	SpecialistKeyRecommendations = "recommendations"
	SpecialistKeySummary         = "summary"
	SpecialistKeyUsedLLM         = "used_llm"
)

const optimizationInstructions = `You are an optimization specialist. Given a user request and
optional gathered context, produce concrete, actionable recommendations.
Answer with a short summary line followed by one recommendation per line, each starting with "- ".`

const optimizationPromptTemplate = `Request: {{.user_request}}
{{if .context}}
Gathered context:
{{.context}}
{{end}}
Produce optimization recommendations.`

// OptimizationUnitOptions configures an OptimizationUnit instance.
type OptimizationUnitOptions struct {
	// Instruction overrides the default specialist system prompt.
	Instruction Instruction
}

// OptimizationUnit is the domain specialist for optimization intents. It
// consumes the data gathering stage's output when present and asks the LLM
// for recommendations; when the LLM is absent or failing it degrades to a
// deterministic recommendation set so the pipeline still completes.
type OptimizationUnit struct {
	BaseUnit
	instruction Instruction
}

// NewOptimizationUnit creates the optimization specialist unit.
func NewOptimizationUnit(deps UnitDeps, optFns ...func(o *OptimizationUnitOptions)) *OptimizationUnit {
	opts := OptimizationUnitOptions{
		Instruction: NewInstructionFromText(optimizationInstructions),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &OptimizationUnit{
		BaseUnit:    NewBaseUnit(AgentOptimization, RoleSpecialist, deps),
		instruction: opts.Instruction,
	}
}

// Execute implements core.AgentUnit.
func (u *OptimizationUnit) Execute(ctx context.Context, ec *core.ExecutionContext, input map[string]any) (core.AgentResult, error) {
	if err := u.EmitThinking(ctx, "Evaluating optimization opportunities"); err != nil {
		return core.AgentResult{}, err
	}

	request := userRequest(ec, input)

	var gatheredContext string
	if gathered, ok := stageOutput(input, AgentDataGathering); ok {
		if data, ok := gathered[GatheringKeyData].(map[string]any); ok {
			gatheredContext = fmt.Sprintf("%v", data)
		}
	}

	summary, recommendations, usedLLM := u.recommend(ctx, ec, request, gatheredContext)

	return core.NewAgentResult(u.Name(), map[string]any{
		SpecialistKeySummary:         summary,
		SpecialistKeyRecommendations: recommendations,
		SpecialistKeyUsedLLM:         usedLLM,
		"optimization_complete":      true,
	}), nil
}

func (u *OptimizationUnit) recommend(ctx context.Context, ec *core.ExecutionContext, request, gatheredContext string) (string, []string, bool) {
	if u.HasLLM() {
		summary, recs, err := u.recommendWithLLM(ctx, ec, request, gatheredContext)
		if err == nil {
			return summary, recs, true
		}
		u.Logger().Warn("llm optimization failed, using deterministic fallback", "run_id", ec.RunID(), "error", err.Error())
	}

	return fallbackRecommendations(request, gatheredContext != "")
}

func (u *OptimizationUnit) recommendWithLLM(ctx context.Context, ec *core.ExecutionContext, request, gatheredContext string) (string, []string, error) {
	instructions, err := u.instruction.Resolve(ec)
	if err != nil {
		return "", nil, err
	}

	prompt, err := util.RenderTemplate(optimizationPromptTemplate, map[string]any{
		"user_request": request,
		"context":      gatheredContext,
	})
	if err != nil {
		return "", nil, err
	}

	text, err := u.Ask(ctx, instructions, prompt)
	if err != nil {
		return "", nil, err
	}

	summary, recs := splitRecommendations(text)

	return summary, recs, nil
}

// splitRecommendations parses a specialist completion: the first non-list
// line becomes the summary, "- " bullet lines become recommendations. A
// completion without bullets yields the whole text as the summary with one
// recommendation.
func splitRecommendations(text string) (string, []string) {
	var (
		summary string
		recs    []string
	)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if rec, ok := strings.CutPrefix(line, "- "); ok {
			recs = append(recs, strings.TrimSpace(rec))
			continue
		}
		if summary == "" {
			summary = line
		}
	}

	if summary == "" {
		summary = strings.TrimSpace(text)
	}
	if len(recs) == 0 && summary != "" {
		recs = []string{summary}
	}

	return summary, recs
}

func fallbackRecommendations(request string, hasContext bool) (string, []string, bool) {
	recs := []string{
		"Profile the current workload before changing anything",
		"Address the highest-impact bottleneck first",
		"Re-measure after each change to confirm the effect",
	}
	if !hasContext {
		recs = append(recs, "Provide current metrics or history for targeted recommendations")
	}

	summary := "General optimization guidance"
	if strings.TrimSpace(request) != "" {
		summary = fmt.Sprintf("General optimization guidance for: %s", strings.TrimSpace(request))
	}

	return summary, recs, false
}
