package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Propagator returns the global text map propagator. It is a no-op unless
// a Tracer was created WithGlobal.
func Propagator() propagation.TextMapPropagator {
	return otel.GetTextMapPropagator()
}

// Inject writes the trace context from ctx into outgoing request headers
// (traceparent, tracestate).
//
//	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
//	tracing.Inject(ctx, req.Header)
func Inject(ctx context.Context, headers http.Header) {
	Propagator().Inject(ctx, propagation.HeaderCarrier(headers))
}

// Extract reads trace context from headers.
func Extract(ctx context.Context, headers http.Header) context.Context {
	return Propagator().Extract(ctx, propagation.HeaderCarrier(headers))
}
