package agentcrew

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agentcrew/agent"
	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/engine"
	"github.com/hupe1980/agentcrew/pipeline"
)

// SupervisorName is the agent name the supervisor reports its own lifecycle
// events under.
const SupervisorName = "supervisor"

// ExecuteOptions configures one Execute call.
type ExecuteOptions struct {
	// StreamUpdates emits an additional thinking progress event before each
	// resolved stage runs. The boundary events (started, planning, completed,
	// error) are emitted regardless; this only adds per-stage progress for
	// callers that render a live activity feed.
	StreamUpdates bool
}

// Execute runs the full orchestration lifecycle for one user request and
// returns the public result envelope.
//
// Validation and configuration failures surface before any engine exists and
// return a nil envelope. Once the engine is constructed, every exit path
// returns an envelope, runs cleanup exactly once, and reports fatal errors
// both ways: an error event through the sink and a non-nil error to the
// caller. Notification delivery failures are fatal; stage failures are not,
// unless the terminal reporting stage is the one that failed.
func (s *Supervisor) Execute(ctx context.Context, ec *core.ExecutionContext, optFns ...func(o *ExecuteOptions)) (*PublicExecutionResult, error) {
	opts := ExecuteOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := ec.Validate(); err != nil {
		return nil, err
	}
	if !ec.HasStore() {
		return nil, &core.ConfigurationError{Reason: "execution context must contain a persistence handle"}
	}

	ctx, span := tracer.Start(ctx, "supervisor.execute",
		trace.WithAttributes(
			attribute.String("agentcrew.user_id", ec.UserID()),
			attribute.String("agentcrew.run_id", ec.RunID()),
			attribute.String("agentcrew.request_id", ec.RequestID()),
		),
	)
	defer span.End()

	s.logger.Info("run accepted",
		"run_id", ec.RunID(),
		"user_id", ec.UserID(),
		"thread_id", ec.ThreadID(),
		"request_id", ec.RequestID(),
	)

	eng := engine.New(ec, s.catalog, func(o *engine.Options) {
		o.Sink = s.opts.Sink
		o.LLM = s.opts.LLM
		o.Logger = s.logger
		o.Hooks = s.opts.Hooks
		o.DecorateRouter = s.decorateRouter
	})
	defer eng.Cleanup()

	start := time.Now()

	order, failedStages, err := s.orchestrate(ctx, eng, opts)
	if err != nil {
		span.SetAttributes(attribute.String("agentcrew.status", string(StatusFailed)))
		s.emitRunError(ctx, eng, err)
		countRun(ctx, StatusFailed, time.Since(start))
		s.logger.Error("run failed",
			"run_id", ec.RunID(),
			"user_id", ec.UserID(),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err.Error(),
		)

		return newFailedResult(ec, eng.Results(), order, failedStages, err), err
	}

	span.SetAttributes(attribute.String("agentcrew.status", string(StatusCompleted)))
	countRun(ctx, StatusCompleted, time.Since(start))
	s.logger.Info("run completed",
		"run_id", ec.RunID(),
		"user_id", ec.UserID(),
		"stages", len(order),
		"failed_stages", len(failedStages),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return newCompletedResult(ec, eng.Results(), order, failedStages), nil
}

// orchestrate drives the staged workflow: announce the run, classify it with
// the triage stage, resolve the execution order from the classification, run
// the remaining stages in order carrying successful outputs forward, and
// announce completion. It returns the resolved order and the names of failed
// stages; the error is non-nil only for run-fatal conditions (delivery
// failures, cancellation, a failed reporting stage).
func (s *Supervisor) orchestrate(ctx context.Context, eng *engine.UserExecutionEngine, opts ExecuteOptions) ([]string, []string, error) {
	ec := eng.Context()
	emitter := eng.Emitter()
	start := time.Now()

	if err := emitter.AgentStarted(ctx, SupervisorName, map[string]any{
		"user_request": ec.UserRequest(),
		"request_id":   ec.RequestID(),
	}); err != nil {
		return nil, nil, err
	}

	if err := emitter.AgentThinking(ctx, SupervisorName, "Analyzing the request and planning the execution order", 1); err != nil {
		return nil, nil, err
	}

	triageRes, err := eng.ExecuteAgentPipeline(ctx, s.resolver.TriageAgent(), s.stageInput(ec, nil, nil, nil))
	if err != nil {
		return nil, nil, err
	}

	order := s.resolver.Resolve(pipeline.ParseTriageOutcome(triageRes))

	s.logger.Debug("execution order resolved",
		"run_id", ec.RunID(),
		"order", strings.Join(order, " -> "),
	)

	completed := map[string]bool{}
	outputs := map[string]core.AgentResult{}
	var failedStages []string

	note := func(res core.AgentResult) {
		outputs[res.AgentName] = res
		if res.Success {
			completed[res.AgentName] = true
		} else {
			failedStages = append(failedStages, res.AgentName)
		}
	}
	note(triageRes)

	step := 2
	for _, name := range order {
		if _, attempted := outputs[name]; attempted {
			continue
		}

		if opts.StreamUpdates {
			if err := emitter.AgentThinking(ctx, SupervisorName, fmt.Sprintf("Executing stage: %s", name), step); err != nil {
				return order, failedStages, err
			}
			step++
		}

		var res core.AgentResult
		if ok, missing := s.resolver.CanExecute(name, completed); !ok {
			res, err = eng.FailStage(ctx, name, fmt.Errorf("unmet dependencies: %s", strings.Join(missing, ", ")))
		} else {
			res, err = eng.ExecuteAgentPipeline(ctx, name, s.stageInput(ec, order, failedStages, outputs))
		}
		if err != nil {
			return order, failedStages, err
		}

		note(res)

		// Degraded stages are tolerated, a failed terminal stage is not:
		// without reporting there is no user-visible answer.
		if name == s.resolver.ReportingAgent() && !res.Success {
			return order, failedStages, &core.AgentExecutionError{AgentName: name, Err: errors.New(res.Error)}
		}
	}

	payload := map[string]any{
		"stages":        len(order),
		"failed_stages": append([]string(nil), failedStages...),
	}
	if report, ok := outputs[s.resolver.ReportingAgent()]; ok && report.Success {
		payload["result"] = report.Data
	}

	if err := emitter.AgentCompleted(ctx, SupervisorName, payload, time.Since(start).Milliseconds()); err != nil {
		return order, failedStages, err
	}

	return order, failedStages, nil
}

// stageInput assembles the input for one stage: the user request, the
// resolved order, the stages failed so far and each successful predecessor's
// output keyed by its agent name.
func (s *Supervisor) stageInput(ec *core.ExecutionContext, order, failedStages []string, outputs map[string]core.AgentResult) map[string]any {
	input := map[string]any{
		core.MetadataUserRequest: ec.UserRequest(),
	}

	if len(order) > 0 {
		input[agent.InputStageOrder] = append([]string(nil), order...)
	}
	if len(failedStages) > 0 {
		input[agent.InputFailedStages] = append([]string(nil), failedStages...)
	}

	for name, res := range outputs {
		if res.Success && res.Data != nil {
			input[name] = res.Data
		}
	}

	return input
}

// emitRunError reports a fatal run error through the sink. Best-effort: the
// original error must reach the caller even when the sink is what broke.
func (s *Supervisor) emitRunError(ctx context.Context, eng *engine.UserExecutionEngine, cause error) {
	errCtx := map[string]any{
		"error_type": fmt.Sprintf("%T", cause),
		"request_id": eng.Context().RequestID(),
	}

	if err := eng.Emitter().AgentError(ctx, SupervisorName, cause.Error(), errCtx); err != nil {
		s.logger.Warn("error event delivery failed",
			"run_id", eng.Context().RunID(),
			"error", err.Error(),
		)
	}
}

// ExecuteBatch runs several independent execution contexts concurrently, one
// isolated engine per context, and returns the envelopes keyed by run id. A
// failing run does not cancel its siblings; the first error is returned after
// every run finishes. Contexts rejected before engine construction produce no
// envelope.
func (s *Supervisor) ExecuteBatch(ctx context.Context, ecs []*core.ExecutionContext, optFns ...func(o *ExecuteOptions)) (map[string]*PublicExecutionResult, error) {
	var (
		mu      sync.Mutex
		results = make(map[string]*PublicExecutionResult, len(ecs))
	)

	g := new(errgroup.Group)
	if s.opts.MaxConcurrentExecutions > 0 {
		g.SetLimit(s.opts.MaxConcurrentExecutions)
	}

	for _, ec := range ecs {
		ec := ec
		g.Go(func() error {
			res, err := s.Execute(ctx, ec, optFns...)
			if res != nil {
				mu.Lock()
				results[ec.RunID()] = res
				mu.Unlock()
			}
			return err
		})
	}

	err := g.Wait()

	return results, err
}

// Run is the legacy entry point kept for callers of the original chat
// backend API: it builds the ExecutionContext from positional identifiers,
// attaches the supervisor's session store, executes with streaming updates
// and unwraps the per-stage results from the envelope.
func (s *Supervisor) Run(ctx context.Context, userRequest, threadID, userID, runID string) ([]core.AgentResult, error) {
	ec := core.NewExecutionContext(userID, threadID, runID, func(o *core.ExecutionContextOptions) {
		o.Metadata = map[string]any{core.MetadataUserRequest: userRequest}
		o.Store = s.opts.Store
	})

	res, err := s.Execute(ctx, ec, func(o *ExecuteOptions) {
		o.StreamUpdates = true
	})
	if err != nil {
		return nil, err
	}

	return res.Results(), nil
}
