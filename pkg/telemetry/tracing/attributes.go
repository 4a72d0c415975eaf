package tracing

import (
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys. Custom keys use the "firekey.*" namespace.
const (
	AttrFile  = "firekey.file"
	AttrModel = "firekey.model"

	AttrAttempt   = "firekey.attempt"
	AttrAttempts  = "firekey.attempts"
	AttrTransient = "firekey.transient"

	AttrEstimatedPromptTokens = "firekey.estimated_prompt_tokens"
	AttrTokens                = "firekey.tokens"
	AttrCost                  = "firekey.cost"

	AttrCacheHit = "firekey.cache.hit"
	AttrForce    = "firekey.cache.force"
	AttrStatus   = "firekey.status"
)

// CallAttributes identifies a call by file and model.
func CallAttributes(file, model string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrFile, file),
		attribute.String(AttrModel, model),
	}
}

// SetUsageAttributes records tokens and cost on a span. Cost is kept as a
// fixed-point string.
func SetUsageAttributes(span trace.Span, attempts, tokens int, cost decimal.Decimal) {
	span.SetAttributes(
		attribute.Int(AttrAttempts, attempts),
		attribute.Int(AttrTokens, tokens),
		attribute.String(AttrCost, cost.StringFixed(6)),
	)
}

// SetCacheAttributes records the cache decision for a file.
func SetCacheAttributes(span trace.Span, hit, force bool) {
	span.SetAttributes(
		attribute.Bool(AttrCacheHit, hit),
		attribute.Bool(AttrForce, force),
	)
}

// AttemptFailed adds an event for a failed attempt.
func AttemptFailed(span trace.Span, attempt int, transient bool, err error) {
	span.AddEvent("attempt failed", trace.WithAttributes(
		attribute.Int(AttrAttempt, attempt),
		attribute.Bool(AttrTransient, transient),
		attribute.String("error", err.Error()),
	))
}

// RecordError records err on the span and marks it failed.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
