package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/internal/util"
)

// Primary intent values produced by triage classification. The pipeline
// resolver maps them to domain agents; unknown values degrade to the default
// domain agent.
const (
	IntentOptimization = "optimization"
	IntentAnalysis     = "analysis"
)

// Data sufficiency values produced by triage classification.
const (
	SufficiencySufficient   = "sufficient"
	SufficiencyInsufficient = "insufficient"
)

// Result data keys written by the triage unit and read by the pipeline
// resolver.
const (
	TriageKeyIntent        = "intent"
	TriageKeyPrimaryIntent = "primary_intent"
	TriageKeyConfidence    = "confidence"
	TriageKeySufficiency   = "data_sufficiency"
	TriageKeyClassifier    = "classifier"
)

const triageInstructions = `You are a triage classifier for a multi-agent assistant.
Classify the user's request and respond with strict JSON only, no prose:
{"primary_intent": "optimization"|"analysis", "confidence": <0.0-1.0>, "data_sufficiency": "sufficient"|"insufficient"}
Use "insufficient" when answering would require the user's existing data or conversation history.`

const triagePromptTemplate = `Classify this request.

Request: {{.user_request}}`

// TriageUnitOptions configures a TriageUnit instance.
type TriageUnitOptions struct {
	// Instruction overrides the default classifier system prompt.
	Instruction Instruction
}

// TriageUnit classifies the user request: which domain intent it expresses
// and whether the request carries enough data to act on directly. The
// classification drives the resolved execution order for the rest of the run.
//
// When the LLM is absent, fails, or returns unparseable output, the unit
// degrades to a deterministic keyword classifier rather than failing the
// stage: triage feeds ordering, and ordering must never be the reason a run
// dies.
type TriageUnit struct {
	BaseUnit
	instruction Instruction
}

// NewTriageUnit creates the triage classification unit.
func NewTriageUnit(deps UnitDeps, optFns ...func(o *TriageUnitOptions)) *TriageUnit {
	opts := TriageUnitOptions{
		Instruction: NewInstructionFromText(triageInstructions),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &TriageUnit{
		BaseUnit:    NewBaseUnit(AgentTriage, RoleClassifier, deps),
		instruction: opts.Instruction,
	}
}

// Execute implements core.AgentUnit.
func (u *TriageUnit) Execute(ctx context.Context, ec *core.ExecutionContext, input map[string]any) (core.AgentResult, error) {
	if err := u.EmitThinking(ctx, "Classifying request intent and data sufficiency"); err != nil {
		return core.AgentResult{}, err
	}

	request := userRequest(ec, input)

	intent, confidence, sufficiency, classifier := u.classify(ctx, ec, request)

	u.Logger().Debug("triage classified request",
		"run_id", ec.RunID(),
		"intent", intent,
		"data_sufficiency", sufficiency,
		"classifier", classifier,
	)

	return core.NewAgentResult(u.Name(), map[string]any{
		TriageKeyIntent: map[string]any{
			TriageKeyPrimaryIntent: intent,
			TriageKeyConfidence:    confidence,
		},
		TriageKeySufficiency: sufficiency,
		TriageKeyClassifier:  classifier,
	}), nil
}

// classify runs the LLM classifier and falls back to keywords on any failure.
func (u *TriageUnit) classify(ctx context.Context, ec *core.ExecutionContext, request string) (intent string, confidence float64, sufficiency, classifier string) {
	if u.HasLLM() && request != "" {
		i, c, s, err := u.classifyWithLLM(ctx, ec, request)
		if err == nil {
			return i, c, s, "llm"
		}
		u.Logger().Warn("llm triage failed, using keyword fallback", "run_id", ec.RunID(), "error", err.Error())
	}

	intent, confidence, sufficiency = classifyByKeyword(request)

	return intent, confidence, sufficiency, "keyword"
}

func (u *TriageUnit) classifyWithLLM(ctx context.Context, ec *core.ExecutionContext, request string) (string, float64, string, error) {
	instructions, err := u.instruction.Resolve(ec)
	if err != nil {
		return "", 0, "", err
	}

	prompt, err := util.RenderTemplate(triagePromptTemplate, map[string]any{"user_request": request})
	if err != nil {
		return "", 0, "", err
	}

	text, err := u.Ask(ctx, instructions, prompt)
	if err != nil {
		return "", 0, "", err
	}

	return parseTriageResponse(text)
}

// parseTriageResponse extracts the classification JSON from an LLM
// completion. Text surrounding the JSON object is tolerated since models
// often wrap answers in prose or fences.
func parseTriageResponse(text string) (string, float64, string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", 0, "", errors.New("no JSON object in triage response")
	}

	var parsed struct {
		PrimaryIntent   string  `json:"primary_intent"`
		Confidence      float64 `json:"confidence"`
		DataSufficiency string  `json:"data_sufficiency"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return "", 0, "", err
	}

	intent := strings.ToLower(strings.TrimSpace(parsed.PrimaryIntent))
	if intent == "" {
		return "", 0, "", errors.New("triage response missing primary_intent")
	}

	sufficiency := strings.ToLower(strings.TrimSpace(parsed.DataSufficiency))
	if sufficiency != SufficiencySufficient && sufficiency != SufficiencyInsufficient {
		return "", 0, "", errors.New("triage response missing data_sufficiency")
	}

	return intent, parsed.Confidence, sufficiency, nil
}

var optimizationKeywords = []string{"optimiz", "improve", "faster", "speed up", "reduce cost", "efficien", "tune"}

// contextKeywords mark requests that reference the user's existing data or
// conversation state, which a fresh request cannot answer without gathering.
var contextKeywords = []string{"my ", "our ", "current", "existing", "previous", "last ", "history", "earlier"}

// classifyByKeyword is the deterministic fallback classifier. It is
// intentionally coarse: it only has to pick a safe pipeline, not a good
// answer.
func classifyByKeyword(request string) (string, float64, string) {
	lower := strings.ToLower(request)

	if strings.TrimSpace(lower) == "" {
		return IntentAnalysis, 0, SufficiencyInsufficient
	}

	intent := IntentAnalysis
	confidence := 0.3
	for _, kw := range optimizationKeywords {
		if strings.Contains(lower, kw) {
			intent = IntentOptimization
			confidence = 0.6
			break
		}
	}

	sufficiency := SufficiencySufficient
	for _, kw := range contextKeywords {
		if strings.Contains(lower, kw) {
			sufficiency = SufficiencyInsufficient
			break
		}
	}

	return intent, confidence, sufficiency
}
