package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/agentcrew/core"
)

// Result data keys written by the reporting unit.
const (
	ReportKeyResponse        = "response"
	ReportKeyStagesCompleted = "stages_completed"
	ReportKeyStagesFailed    = "stages_failed"
)

// ReportingUnit is the terminal pipeline stage. It aggregates the outputs of
// every stage that ran before it into the final user-facing response payload.
// The unit is purely deterministic: the answer the user sees is assembled
// from specialist output, never re-generated, so a failing LLM cannot take
// the whole run down at the last stage.
//
// Reporting is always resolved last and is the one stage whose failure fails
// the run, since without it there is no user-visible answer.
type ReportingUnit struct {
	BaseUnit
}

// NewReportingUnit creates the terminal reporting aggregator.
func NewReportingUnit(deps UnitDeps) *ReportingUnit {
	return &ReportingUnit{
		BaseUnit: NewBaseUnit(AgentReporting, RoleAggregator, deps),
	}
}

// Execute implements core.AgentUnit.
func (u *ReportingUnit) Execute(ctx context.Context, ec *core.ExecutionContext, input map[string]any) (core.AgentResult, error) {
	if err := u.EmitThinking(ctx, "Compiling final response from stage outputs"); err != nil {
		return core.AgentResult{}, err
	}

	order := stringSlice(input[InputStageOrder])
	failed := stringSlice(input[InputFailedStages])

	var completed []string
	for _, name := range order {
		if name == u.Name() {
			continue
		}
		if _, ok := stageOutput(input, name); ok {
			completed = append(completed, name)
		}
	}

	response := u.composeResponse(ec, input, completed, failed)

	return core.NewAgentResult(u.Name(), map[string]any{
		ReportKeyResponse:        response,
		ReportKeyStagesCompleted: completed,
		ReportKeyStagesFailed:    failed,
		"user_id":                ec.UserID(),
		"run_id":                 ec.RunID(),
		"report_complete":        true,
	}), nil
}

// composeResponse assembles the user-facing answer from whatever the prior
// stages produced. Missing stages are tolerated; an empty pipeline yields an
// honest "nothing produced output" message rather than an error.
func (u *ReportingUnit) composeResponse(ec *core.ExecutionContext, input map[string]any, completed, failed []string) string {
	var parts []string

	if analysis, ok := stageOutput(input, AgentAnalysis); ok {
		if summary, ok := analysis[SpecialistKeySummary].(string); ok && summary != "" {
			parts = append(parts, summary)
		}
	}

	if optimization, ok := stageOutput(input, AgentOptimization); ok {
		if summary, ok := optimization[SpecialistKeySummary].(string); ok && summary != "" {
			parts = append(parts, summary)
		}
		if recs := stringSlice(optimization[SpecialistKeyRecommendations]); len(recs) > 0 {
			var b strings.Builder
			b.WriteString("Recommendations:")
			for _, rec := range recs {
				b.WriteString("\n- ")
				b.WriteString(rec)
			}
			parts = append(parts, b.String())
		}
	}

	if len(parts) == 0 {
		request := userRequest(ec, input)
		if strings.TrimSpace(request) == "" {
			parts = append(parts, "No stage produced output for this request.")
		} else {
			parts = append(parts, fmt.Sprintf("No specialist output was produced for: %s", strings.TrimSpace(request)))
		}
	}

	if len(failed) > 0 {
		parts = append(parts, fmt.Sprintf("Note: %d stage(s) did not complete: %s.", len(failed), strings.Join(failed, ", ")))
	}

	return strings.Join(parts, "\n\n")
}

// stringSlice coerces an input value into []string, tolerating both []string
// and the []any shape produced by JSON decoding.
func stringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
