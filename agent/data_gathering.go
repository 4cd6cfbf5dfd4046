package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/agentcrew/core"
)

// Result data keys written by the data gathering unit.
const (
	GatheringKeyData     = "gathered_data"
	GatheringKeyGathered = "gathered"
	GatheringKeySource   = "source"
)

var collectSessionContextSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"thread_id": map[string]any{"type": "string"},
		"user_id":   map[string]any{"type": "string"},
	},
	"required": []any{"thread_id"},
}

// DataGatheringUnit collects the conversation context a domain specialist
// needs when the request alone is insufficient: session state and the run
// history recorded for the thread. The collection step is reported as a tool
// invocation so clients see tool_executing / tool_completed progress.
type DataGatheringUnit struct {
	BaseUnit
}

// NewDataGatheringUnit creates the session context collector unit.
func NewDataGatheringUnit(deps UnitDeps) *DataGatheringUnit {
	return &DataGatheringUnit{
		BaseUnit: NewBaseUnit(AgentDataGathering, RoleCollector, deps),
	}
}

// Execute implements core.AgentUnit.
func (u *DataGatheringUnit) Execute(ctx context.Context, ec *core.ExecutionContext, input map[string]any) (core.AgentResult, error) {
	if err := u.EmitThinking(ctx, "Collecting conversation context and session state"); err != nil {
		return core.AgentResult{}, err
	}

	if !ec.HasStore() {
		return core.NewAgentErrorResult(u.Name(), errors.New("no session store attached to execution context")), nil
	}

	args := map[string]any{
		"thread_id": ec.ThreadID(),
		"user_id":   ec.UserID(),
	}

	gathered, err := u.RunTool(ctx, "collect_session_context", args, collectSessionContextSchema, func(ctx context.Context, args map[string]any) (map[string]any, error) {
		threadID, _ := args["thread_id"].(string)
		userID, _ := args["user_id"].(string)

		sess, err := ec.Store().GetOrCreate(ctx, threadID, userID)
		if err != nil {
			return nil, fmt.Errorf("loading session %s: %w", threadID, err)
		}

		history := sess.Events()

		return map[string]any{
			"session_state":  sess.Clone().State,
			"history_events": len(history),
			"thread_id":      threadID,
		}, nil
	})
	if err != nil {
		if core.IsNotificationDelivery(err) {
			return core.AgentResult{}, err
		}
		return core.NewAgentErrorResult(u.Name(), err), nil
	}

	return core.NewAgentResult(u.Name(), map[string]any{
		GatheringKeyData:     gathered,
		GatheringKeyGathered: true,
		GatheringKeySource:   "session_store",
	}), nil
}
