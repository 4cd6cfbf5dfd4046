package agent

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/internal/util"
	"github.com/hupe1980/agentcrew/logging"
	"github.com/hupe1980/agentcrew/model"
	"github.com/hupe1980/agentcrew/notify"
)

// ToolFunc is the body of a tool invocation run through BaseUnit.RunTool.
type ToolFunc func(ctx context.Context, args map[string]any) (map[string]any, error)

// BaseUnit bundles the identity and collaborator plumbing shared by all
// built-in agent units. Embed it in concrete units and supply an Execute
// method to satisfy core.AgentUnit.
//
// A unit instance serves exactly one run: the embedded emitter is already
// bound to that run's id, and the thinking step counter is per-instance.
// Units are executed sequentially within a run, so BaseUnit does not lock.
type BaseUnit struct {
	name    string
	role    string
	emitter *notify.RunEmitter
	llm     model.LLM
	logger  logging.Logger
	step    int
}

// NewBaseUnit constructs a BaseUnit from the factory-provided dependencies.
// A nil emitter is replaced with a no-op one and a nil logger with
// logging.NoOpLogger, so hand-constructed units stay usable in tests.
func NewBaseUnit(name, role string, deps UnitDeps) BaseUnit {
	emitter := deps.Emitter
	if emitter == nil {
		emitter = notify.NewRunEmitter(nil, "")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return BaseUnit{
		name:    name,
		role:    role,
		emitter: emitter,
		llm:     deps.LLM,
		logger:  logger,
	}
}

// Name returns the logical agent name used in execution orders and events.
func (b *BaseUnit) Name() string { return b.name }

// Role returns the unit's role category.
func (b *BaseUnit) Role() string { return b.role }

// Info returns the unit's identifying details for events and logs.
func (b *BaseUnit) Info() core.AgentInfo { return core.AgentInfo{Name: b.name, Role: b.role} }

// Logger returns the unit's logger.
func (b *BaseUnit) Logger() logging.Logger { return b.logger }

// Emitter returns the run-bound notification emitter.
func (b *BaseUnit) Emitter() *notify.RunEmitter { return b.emitter }

// HasLLM reports whether an LLM handle was configured. Units without one
// degrade to deterministic behavior.
func (b *BaseUnit) HasLLM() bool { return b.llm != nil }

// EmitThinking reports intermediate reasoning progress with the next step
// number. Delivery failures are returned, never swallowed.
func (b *BaseUnit) EmitThinking(ctx context.Context, reasoning string) error {
	b.step++
	return b.emitter.AgentThinking(ctx, b.name, reasoning, b.step)
}

// Ask sends a request to the configured LLM and returns the completion text.
// It fails when no LLM handle was configured; callers decide whether that is
// fatal or triggers a deterministic fallback.
func (b *BaseUnit) Ask(ctx context.Context, instructions, prompt string) (string, error) {
	if b.llm == nil {
		return "", errors.New("no llm capability configured")
	}

	start := time.Now()
	resp, err := b.llm.Ask(ctx, model.Request{Instructions: instructions, Prompt: prompt})
	if err != nil {
		b.logger.Debug("llm call failed", "agent", b.name, "error", err.Error())
		return "", err
	}

	b.logger.Debug("llm call completed",
		"agent", b.name,
		"model", b.llm.Info().Name,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return resp.Text, nil
}

// RunTool validates args against schema, reports the invocation through the
// emitter (tool_executing, then tool_completed with the wall-clock duration)
// and runs fn. Validation failures return before any event is emitted; fn
// failures are reported in the tool_completed payload and returned to the
// caller. A non-nil error from the emitter itself always takes precedence so
// delivery problems surface.
func (b *BaseUnit) RunTool(ctx context.Context, toolName string, args, schema map[string]any, fn ToolFunc) (map[string]any, error) {
	if schema != nil {
		if err := util.ValidateParameters(args, schema); err != nil {
			return nil, err
		}
	}

	if err := b.emitter.ToolExecuting(ctx, b.name, toolName, args); err != nil {
		return nil, err
	}

	start := time.Now()
	out, err := fn(ctx, args)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		if derr := b.emitter.ToolCompleted(ctx, b.name, toolName, map[string]any{"error": err.Error()}, elapsed); derr != nil {
			return nil, derr
		}
		return nil, err
	}

	if derr := b.emitter.ToolCompleted(ctx, b.name, toolName, out, elapsed); derr != nil {
		return nil, derr
	}

	return out, nil
}
