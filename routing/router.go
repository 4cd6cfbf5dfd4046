package routing

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentcrew/agent"
	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/logging"
)

// Router routes one stage invocation to the named agent.
//
// Implementations report agent-level failures as failed results, never as
// errors. A non-nil error means the run itself must stop: the instance could
// not be constructed (*core.UnknownAgentError), a lifecycle event could not
// be delivered (*core.NotificationDeliveryError), or the context was
// cancelled. Decorators pass errors through without retrying or counting
// them.
type Router interface {
	Route(ctx context.Context, agentName string, input map[string]any) (core.AgentResult, error)
}

// AgentRouterOptions configures an AgentRouter.
type AgentRouterOptions struct {
	Logger logging.Logger
}

// AgentRouter is the base routing strategy: construct a fresh unit through
// the per-run factory and execute it. Unit errors and panics become failed
// results carrying the failure text.
type AgentRouter struct {
	factory *agent.InstanceFactory
	logger  logging.Logger
}

// Compile-time check.
var _ Router = (*AgentRouter)(nil)

// NewAgentRouter creates the base router over a per-run instance factory.
func NewAgentRouter(factory *agent.InstanceFactory, optFns ...func(o *AgentRouterOptions)) *AgentRouter {
	opts := AgentRouterOptions{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &AgentRouter{factory: factory, logger: opts.Logger}
}

// Route implements Router.
func (r *AgentRouter) Route(ctx context.Context, agentName string, input map[string]any) (res core.AgentResult, err error) {
	unit, cerr := r.factory.CreateInstance(agentName)
	if cerr != nil {
		return core.AgentResult{}, cerr
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("agent panicked during routing",
				"agent", agentName,
				"run_id", r.factory.Context().RunID(),
				"panic", fmt.Sprint(rec),
			)
			res = core.NewAgentErrorResult(agentName, &core.AgentExecutionError{
				AgentName: agentName,
				Err:       fmt.Errorf("panic: %v", rec),
			})
			err = nil
		}
	}()

	res, execErr := unit.Execute(ctx, r.factory.Context(), input)
	if execErr != nil {
		if core.IsNotificationDelivery(execErr) || ctx.Err() != nil {
			return core.AgentResult{}, execErr
		}
		return core.NewAgentErrorResult(agentName, &core.AgentExecutionError{AgentName: agentName, Err: execErr}), nil
	}

	// Hold the failure invariant even for units that return bare results.
	if res.AgentName == "" {
		res.AgentName = agentName
	}
	if !res.Success && res.Error == "" {
		res.Error = "unknown error"
	}

	return res, nil
}
