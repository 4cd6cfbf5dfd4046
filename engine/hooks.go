package engine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/logging"
)

// StageHook receives lifecycle callbacks around every pipeline stage the
// engine executes. Hooks run synchronously on the run's goroutine.
//
// BeforeStage may veto the stage by returning an error, which records a
// failed result without invoking the agent; the run continues degraded.
// AfterStage observes the recorded result and must not block for long.
type StageHook interface {
	BeforeStage(ctx context.Context, ec *core.ExecutionContext, agentName string, input map[string]any) error
	AfterStage(ctx context.Context, ec *core.ExecutionContext, res core.AgentResult)
}

// LoggingHook logs stage boundaries. Successful stages log at debug level,
// failed ones at warn.
type LoggingHook struct {
	Logger logging.Logger
}

// BeforeStage implements StageHook.
func (h LoggingHook) BeforeStage(_ context.Context, ec *core.ExecutionContext, agentName string, _ map[string]any) error {
	h.Logger.Debug("stage starting", "agent", agentName, "run_id", ec.RunID())
	return nil
}

// AfterStage implements StageHook.
func (h LoggingHook) AfterStage(_ context.Context, ec *core.ExecutionContext, res core.AgentResult) {
	if res.Success {
		h.Logger.Debug("stage completed",
			"agent", res.AgentName,
			"run_id", ec.RunID(),
			"duration_ms", res.DurationMS(),
		)
		return
	}
	h.Logger.Warn("stage failed",
		"agent", res.AgentName,
		"run_id", ec.RunID(),
		"error", res.Error,
	)
}

var meter = otel.GetMeterProvider().Meter("agentcrew/engine")

// MetricsHook records per-stage execution counts and durations. Instruments
// are created lazily and instrument errors are ignored; metrics never affect
// a run.
type MetricsHook struct{}

// BeforeStage implements StageHook.
func (MetricsHook) BeforeStage(context.Context, *core.ExecutionContext, string, map[string]any) error {
	return nil
}

// AfterStage implements StageHook.
func (MetricsHook) AfterStage(ctx context.Context, _ *core.ExecutionContext, res core.AgentResult) {
	attrs := otelmetric.WithAttributes(
		attribute.String("agent", res.AgentName),
		attribute.Bool("success", res.Success),
	)
	if counter, err := meter.Int64Counter("agentcrew.engine.stages"); err == nil {
		counter.Add(ctx, 1, attrs)
	}
	if hist, err := meter.Float64Histogram("agentcrew.engine.stage_duration", otelmetric.WithUnit("ms")); err == nil {
		hist.Record(ctx, float64(res.DurationMS()), attrs)
	}
}
