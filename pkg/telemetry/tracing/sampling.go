package tracing

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// newSampler maps a sample ratio to a parent-based sampler. Ratios at or
// above 1 sample everything, at or below 0 nothing.
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    sample_ratio: 0.1  # 10% of calls
func newSampler(ratio float64) sdktrace.Sampler {
	var base sdktrace.Sampler
	switch {
	case ratio >= 1:
		base = sdktrace.AlwaysSample()
	case ratio <= 0:
		base = sdktrace.NeverSample()
	default:
		base = sdktrace.TraceIDRatioBased(ratio)
	}
	return sdktrace.ParentBased(base)
}
