package routing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

var meter = otel.GetMeterProvider().Meter("agentcrew/routing")

// countRetry records one retried routing attempt. Best-effort: metric errors
// never affect routing.
func countRetry(ctx context.Context, agentName string) {
	if counter, err := meter.Int64Counter("agentcrew.routing.retries"); err == nil {
		counter.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("agent", agentName)))
	}
}

// countBreakerOpen records one short-circuited call.
func countBreakerOpen(ctx context.Context, agentName string) {
	if counter, err := meter.Int64Counter("agentcrew.routing.breaker_open"); err == nil {
		counter.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("agent", agentName)))
	}
}
