package agent

import "github.com/hupe1980/agentcrew/core"

// Input map keys written by the orchestrator for every stage. Each completed
// stage's output data is additionally carried under that stage's agent name,
// so successors read predecessor output as input[AgentTriage],
// input[AgentDataGathering], etc.
const (
	// InputUserRequest carries the user request text.
	InputUserRequest = "user_request"
	// InputStageOrder carries the resolved execution order ([]string).
	InputStageOrder = "stage_order"
	// InputFailedStages carries the names of stages that produced failed
	// results so far ([]string).
	InputFailedStages = "failed_stages"
)

// userRequest resolves the request text for a stage: the orchestrator-supplied
// input wins, the context metadata is the fallback.
func userRequest(ec *core.ExecutionContext, input map[string]any) string {
	if v, ok := input[InputUserRequest]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ec.UserRequest()
}

// stageOutput returns the output data a prior stage contributed to input,
// or nil and false when the stage did not run or produced no map data.
func stageOutput(input map[string]any, agentName string) (map[string]any, bool) {
	v, ok := input[agentName]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}
