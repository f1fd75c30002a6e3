// trace.go links events to the OpenTelemetry span active in the capture context.

package aisen

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// TraceContextName is the event context that carries trace and span IDs.
const TraceContextName = "trace"

// traceContext returns the "trace" event context for the span in ctx, or nil
// when ctx carries no valid span context.
func traceContext(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return map[string]any{
		"trace_id": sc.TraceID().String(),
		"span_id":  sc.SpanID().String(),
		"sampled":  sc.IsSampled(),
	}
}
