package circuitbreaker

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/draftea/order-system/shared/telemetry"
)

// MetricsListener counts breaker transitions
type MetricsListener struct {
	tel *telemetry.Telemetry
}

func NewMetricsListener(tel *telemetry.Telemetry) *MetricsListener {
	return &MetricsListener{tel: tel}
}

func (l *MetricsListener) OnStateChange(target string, from State, to State) {
	ctx := context.Background()
	if l.tel != nil {
		ctx = telemetry.WithTelemetry(ctx, l.tel)
	}

	telemetry.RecordCounter(ctx, "circuit_breaker_transitions_total", "Circuit breaker state transitions", 1,
		attribute.String("target", target),
		attribute.String("from", string(from)),
		attribute.String("to", string(to)),
	)
}
