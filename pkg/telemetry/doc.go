// Package telemetry groups the observability packages used by firekey.
//
//   - logging: slog loggers with console, JSON and text output and API key redaction
//   - metrics: Prometheus collector for calls, retries, tokens, cost and cache hits
//   - tracing: OpenTelemetry spans per tracked call and per processed file
//   - health: liveness and readiness probes served next to the metrics endpoint
//
// Every package degrades to a no-op when disabled in configuration, so callers
// wire the same components whether or not telemetry is turned on.
package telemetry
