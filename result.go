package agentcrew

import (
	"fmt"

	"github.com/hupe1980/agentcrew/core"
)

// ExecutionStatus is the top-level outcome of one Supervisor execution. It is
// binary: there is no partial-success status at this level, richer detail
// lives inside the result data.
type ExecutionStatus string

// Execution statuses.
const (
	StatusCompleted ExecutionStatus = "completed"
	StatusFailed    ExecutionStatus = "failed"
)

// Data keys of the PublicExecutionResult payload. The nested legacy fields
// are kept for callers of the original chat backend API.
const (
	DataKeySupervisorResult = "supervisor_result"
	DataKeyOrchestration    = "orchestration_successful"
	DataKeyIsolation        = "user_isolation_verified"
	DataKeyResults          = "results"
	DataKeyUserID           = "user_id"
	DataKeyRunID            = "run_id"
	DataKeyExecutionOrder   = "execution_order"
	DataKeyFailedStages     = "failed_stages"
	DataKeyError            = "error"
	DataKeyErrorType        = "error_type"
)

// PublicExecutionResult is the stable three-field envelope returned by
// Supervisor.Execute. Status is completed or failed, RequestID correlates the
// result with the originating request, and Data carries the run payload
// including the nested legacy fields.
type PublicExecutionResult struct {
	Status    ExecutionStatus `json:"status"`
	Data      map[string]any  `json:"data"`
	RequestID string          `json:"request_id"`
}

// Completed reports whether the execution reached the completed status.
func (r *PublicExecutionResult) Completed() bool { return r.Status == StatusCompleted }

// Results returns the recorded per-stage results from the data payload, or
// nil when absent.
func (r *PublicExecutionResult) Results() []core.AgentResult {
	if r == nil || r.Data == nil {
		return nil
	}
	results, _ := r.Data[DataKeyResults].([]core.AgentResult)
	return results
}

// Response returns the user-facing answer composed by the reporting stage, or
// "" when the run failed before reporting produced one.
func (r *PublicExecutionResult) Response() string {
	if r == nil || r.Data == nil {
		return ""
	}
	report, ok := r.Data[DataKeySupervisorResult].(map[string]any)
	if !ok {
		return ""
	}
	resp, _ := report["response"].(string)
	return resp
}

// envelopeData assembles the run payload shared by completed and failed
// envelopes: identity, the per-stage results and the orchestration verdict.
func envelopeData(ec *core.ExecutionContext, results []core.AgentResult, order, failed []string, successful bool) map[string]any {
	data := map[string]any{
		DataKeyOrchestration: successful,
		DataKeyIsolation:     true,
		DataKeyResults:       results,
		DataKeyUserID:        ec.UserID(),
		DataKeyRunID:         ec.RunID(),
	}

	if len(order) > 0 {
		data[DataKeyExecutionOrder] = append([]string(nil), order...)
	}
	if len(failed) > 0 {
		data[DataKeyFailedStages] = append([]string(nil), failed...)
	}

	if reporting := agentReportingName(order); reporting != "" {
		for _, res := range results {
			if res.AgentName == reporting && res.Success {
				data[DataKeySupervisorResult] = res.Data
			}
		}
	}

	return data
}

// agentReportingName returns the terminal stage of the order, which by the
// resolver contract is always the reporting agent.
func agentReportingName(order []string) string {
	if len(order) == 0 {
		return ""
	}
	return order[len(order)-1]
}

// newCompletedResult builds the envelope for a successful run.
func newCompletedResult(ec *core.ExecutionContext, results []core.AgentResult, order, failed []string) *PublicExecutionResult {
	return &PublicExecutionResult{
		Status:    StatusCompleted,
		Data:      envelopeData(ec, results, order, failed, true),
		RequestID: ec.RequestID(),
	}
}

// newFailedResult builds the envelope for a failed run, carrying the original
// error message and type name alongside whatever stages completed before the
// failure.
func newFailedResult(ec *core.ExecutionContext, results []core.AgentResult, order, failed []string, cause error) *PublicExecutionResult {
	data := envelopeData(ec, results, order, failed, false)
	data[DataKeyError] = cause.Error()
	data[DataKeyErrorType] = fmt.Sprintf("%T", cause)

	return &PublicExecutionResult{
		Status:    StatusFailed,
		Data:      data,
		RequestID: ec.RequestID(),
	}
}
