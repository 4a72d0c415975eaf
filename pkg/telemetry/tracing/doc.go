// Package tracing sets up OpenTelemetry tracing for tracked calls.
//
// When enabled, spans are exported over OTLP/gRPC to the configured
// collector. When disabled, a no-op provider is used and spans cost nothing.
//
// # Spans
//
//   - firekey.file: one per processed file, with the cache decision and status
//   - firekey.call: one per tracked call, with an event per failed attempt
//     and the attributed tokens and cost
//
// # Usage
//
//	tracer, err := tracing.New(ctx, &cfg.Telemetry.Tracing, tracing.WithGlobal())
//	if err != nil {
//		return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	c := client.New(caller, tracker, calc, client.WithTracer(tracer.Tracer()))
//
// The HTTP caller injects W3C trace context into outgoing requests with
// Inject; this is a no-op unless the tracer was created WithGlobal.
package tracing
