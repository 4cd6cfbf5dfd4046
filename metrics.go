package agentcrew

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("agentcrew")
	meter  = otel.GetMeterProvider().Meter("agentcrew")
)

// countRun records one finished run and its duration. Instrument creation is
// best-effort: metrics never fail a run.
func countRun(ctx context.Context, status ExecutionStatus, dur time.Duration) {
	attrs := otelmetric.WithAttributes(attribute.String("status", string(status)))

	if counter, err := meter.Int64Counter("agentcrew.runs"); err == nil {
		counter.Add(ctx, 1, attrs)
	}

	if hist, err := meter.Float64Histogram("agentcrew.run_duration",
		otelmetric.WithUnit("ms"),
		otelmetric.WithDescription("Wall-clock duration of supervisor runs."),
	); err == nil {
		hist.Record(ctx, float64(dur.Milliseconds()), attrs)
	}
}
