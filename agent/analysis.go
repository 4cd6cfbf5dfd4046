package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/internal/util"
)

const analysisInstructions = `You are an analysis specialist. Examine the user's request and any
gathered context and explain what is going on.
Answer with a short summary line followed by one finding per line, each starting with "- ".`

const analysisPromptTemplate = `Request: {{.user_request}}
{{if .context}}
Gathered context:
{{.context}}
{{end}}
Analyze the request.`

// AnalysisUnitOptions configures an AnalysisUnit instance.
type AnalysisUnitOptions struct {
	// Instruction overrides the default specialist system prompt.
	Instruction Instruction
}

// AnalysisUnit is the default domain specialist: the resolver routes unknown
// or analysis intents here. Like the optimization unit it tolerates missing
// upstream data and an absent or failing LLM.
type AnalysisUnit struct {
	BaseUnit
	instruction Instruction
}

// NewAnalysisUnit creates the analysis specialist unit.
func NewAnalysisUnit(deps UnitDeps, optFns ...func(o *AnalysisUnitOptions)) *AnalysisUnit {
	opts := AnalysisUnitOptions{
		Instruction: NewInstructionFromText(analysisInstructions),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &AnalysisUnit{
		BaseUnit:    NewBaseUnit(AgentAnalysis, RoleSpecialist, deps),
		instruction: opts.Instruction,
	}
}

// Execute implements core.AgentUnit.
func (u *AnalysisUnit) Execute(ctx context.Context, ec *core.ExecutionContext, input map[string]any) (core.AgentResult, error) {
	if err := u.EmitThinking(ctx, "Analyzing the request"); err != nil {
		return core.AgentResult{}, err
	}

	request := userRequest(ec, input)

	var gatheredContext string
	if gathered, ok := stageOutput(input, AgentDataGathering); ok {
		if data, ok := gathered[GatheringKeyData].(map[string]any); ok {
			gatheredContext = fmt.Sprintf("%v", data)
		}
	}

	summary, findings, usedLLM := u.analyze(ctx, ec, request, gatheredContext)

	return core.NewAgentResult(u.Name(), map[string]any{
		SpecialistKeySummary: summary,
		"findings":           findings,
		SpecialistKeyUsedLLM: usedLLM,
		"analysis_complete":  true,
	}), nil
}

func (u *AnalysisUnit) analyze(ctx context.Context, ec *core.ExecutionContext, request, gatheredContext string) (string, []string, bool) {
	if u.HasLLM() {
		summary, findings, err := u.analyzeWithLLM(ctx, ec, request, gatheredContext)
		if err == nil {
			return summary, findings, true
		}
		u.Logger().Warn("llm analysis failed, using deterministic fallback", "run_id", ec.RunID(), "error", err.Error())
	}

	summary := "No request text was provided; nothing to analyze"
	if trimmed := strings.TrimSpace(request); trimmed != "" {
		summary = fmt.Sprintf("Received request: %s", trimmed)
	}

	findings := []string{summary}
	if gatheredContext != "" {
		findings = append(findings, "Session context was gathered and is available to later stages")
	}

	return summary, findings, false
}

func (u *AnalysisUnit) analyzeWithLLM(ctx context.Context, ec *core.ExecutionContext, request, gatheredContext string) (string, []string, error) {
	instructions, err := u.instruction.Resolve(ec)
	if err != nil {
		return "", nil, err
	}

	prompt, err := util.RenderTemplate(analysisPromptTemplate, map[string]any{
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

	summary, findings := splitRecommendations(text)

	return summary, findings, nil
}
