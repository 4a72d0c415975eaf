package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"firekey-hq/tally/pkg/processing/costs"
	"firekey-hq/tally/pkg/providers"
	"firekey-hq/tally/pkg/telemetry/tracing"
	"firekey-hq/tally/pkg/usage"
)

// Retry policy. Fixed: 3 attempts in total, 3 seconds apart, no backoff.
const (
	MaxAttempts = 3
	RetryDelay  = 3 * time.Second
)

// TracerName is the instrumentation name used for call spans.
const TracerName = "firekey-hq/tally/client"

// Sleeper pauses between attempts. It must return ctx.Err() if the context
// ends before d elapses.
type Sleeper func(ctx context.Context, d time.Duration) error

// ErrorLog receives one line per failed attempt and per failed file.
type ErrorLog interface {
	LogError(message string) error
}

// Observer receives call outcomes, typically a metrics collector.
type Observer interface {
	ObserveCall(model, status string, duration time.Duration)
	ObserveRetry(model string)
	ObserveUsage(model string, tokens int, cost decimal.Decimal)
}

// Request describes one tracked call.
type Request struct {
	// FileName identifies the input; it keys the usage note and error lines.
	FileName string

	// Prompt is sent to the caller unchanged.
	Prompt string

	// Model overrides the client's default model when set.
	Model string

	// Options are passed to the caller.
	Options providers.Options

	// CompletionExtractor and UsageExtractor override the client defaults.
	CompletionExtractor providers.CompletionExtractor
	UsageExtractor      providers.UsageExtractor

	// ReturnRecord attaches the usage record to the result.
	ReturnRecord bool
}

// Result is the outcome of a successful call.
type Result struct {
	// Text is the extracted completion.
	Text string

	// Raw is the unmodified response document.
	Raw []byte

	// Record is the usage record; set only when Request.ReturnRecord is true.
	Record *usage.Record
}

// Client is a tracked, retrying wrapper around a providers.Caller.
type Client struct {
	caller     providers.Caller
	tracker    *usage.Tracker
	calculator *costs.Calculator

	defaultModel string
	completion   providers.CompletionExtractor
	usage        providers.UsageExtractor

	errorLog ErrorLog
	observer Observer
	tracer   trace.Tracer
	logger   *slog.Logger
	sleep    Sleeper
}

// Option configures a Client.
type Option func(*Client)

// WithDefaultModel sets the model used when a request names none.
func WithDefaultModel(model string) Option {
	return func(c *Client) { c.defaultModel = model }
}

// WithExtractors replaces the default extractors. Nil arguments keep the default.
func WithExtractors(completion providers.CompletionExtractor, u providers.UsageExtractor) Option {
	return func(c *Client) {
		if completion != nil {
			c.completion = completion
		}
		if u != nil {
			c.usage = u
		}
	}
}

// WithErrorLog sets the error log sink.
func WithErrorLog(log ErrorLog) Option {
	return func(c *Client) { c.errorLog = log }
}

// WithObserver sets the call observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithTracer sets the tracer used for call spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithSleeper replaces the pause between attempts.
func WithSleeper(s Sleeper) Option {
	return func(c *Client) { c.sleep = s }
}

// New creates a tracked client.
func New(caller providers.Caller, tracker *usage.Tracker, calculator *costs.Calculator, opts ...Option) *Client {
	c := &Client{
		caller:       caller,
		tracker:      tracker,
		calculator:   calculator,
		defaultModel: "gpt-4o-mini",
		completion:   providers.DefaultCompletionExtractor,
		usage:        providers.DefaultUsageExtractor,
		tracer:       otel.Tracer(TracerName),
		logger:       slog.Default(),
		sleep:        SleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "client")
	return c
}

// Tracker returns the usage tracker the client records into.
func (c *Client) Tracker() *usage.Tracker {
	return c.tracker
}

// Call performs a tracked call. It returns *ProcessingFailed when the call
// failed permanently, exhausted its attempts or was cancelled.
func (c *Client) Call(ctx context.Context, req Request) (*Result, error) {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	ctx, span := c.tracer.Start(ctx, "firekey.call", trace.WithAttributes(tracing.CallAttributes(req.FileName, model)...))
	defer span.End()

	start := time.Now()
	estimate := c.tracker.BeforeCall(req.FileName, req.Prompt, model)
	span.SetAttributes(attribute.Int(tracing.AttrEstimatedPromptTokens, estimate))

	raw, attempts, err := c.attempt(ctx, span, req, model)
	if err != nil {
		c.tracker.Forget(req.FileName)
		failed := &ProcessingFailed{FileName: req.FileName, Attempts: attempts, Cause: err}
		c.writeErrorLog(fmt.Sprintf("%s: %v", req.FileName, err))
		c.logger.Error("Call failed", "file", req.FileName, "model", model, "attempts", attempts, "error", err)
		if c.observer != nil {
			c.observer.ObserveCall(model, "failure", time.Since(start))
		}
		tracing.RecordError(span, failed)
		return nil, failed
	}

	result := c.account(req, model, raw)
	tracing.SetUsageAttributes(span, attempts, result.Record.Tokens(), result.Record.Cost)
	if c.observer != nil {
		c.observer.ObserveCall(model, "success", time.Since(start))
		c.observer.ObserveUsage(model, result.Record.Tokens(), result.Record.Cost)
	}

	if !req.ReturnRecord {
		result.Record = nil
	}
	return result, nil
}

// attempt runs the retry loop and returns the raw response of the first
// successful attempt.
func (c *Client) attempt(ctx context.Context, span trace.Span, req Request, model string) ([]byte, int, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		raw, err := c.caller.Call(ctx, req.Prompt, model, req.Options)
		if err == nil {
			return raw, attempt, nil
		}
		lastErr = err

		transient := providers.IsTransient(err)
		tracing.AttemptFailed(span, attempt, transient, err)
		c.writeErrorLog(fmt.Sprintf("Attempt %d for '%s' failed: %v", attempt, req.FileName, err))
		c.logger.Warn("Attempt failed",
			"file", req.FileName,
			"attempt", attempt,
			"max_attempts", MaxAttempts,
			"transient", transient,
			"error", err,
		)

		if !transient || attempt == MaxAttempts {
			return nil, attempt, lastErr
		}

		if c.observer != nil {
			c.observer.ObserveRetry(model)
		}
		if err := c.sleep(ctx, RetryDelay); err != nil {
			return nil, attempt, errors.Join(lastErr, err)
		}
	}
	return nil, MaxAttempts, lastErr
}

// account extracts text and usage from a successful response and records it.
func (c *Client) account(req Request, model string, raw []byte) *Result {
	completionFn := c.completion
	if req.CompletionExtractor != nil {
		completionFn = req.CompletionExtractor
	}
	usageFn := c.usage
	if req.UsageExtractor != nil {
		usageFn = req.UsageExtractor
	}

	text, err := completionFn(raw)
	if err != nil {
		c.logger.Warn("Completion text not found in response", "file", req.FileName, "error", err)
	}

	u, err := usageFn(raw)
	if err != nil {
		var extErr *providers.ExtractionError
		if !errors.As(err, &extErr) {
			c.logger.Warn("Usage extractor failed", "file", req.FileName, "error", err)
		}
		u = nil
	}

	var rec *usage.Record
	if u != nil {
		cost := c.calculator.PriceFor(model, u.PromptTokens, u.CompletionTokens)
		rec = c.tracker.RecordCall(req.FileName, model, u, cost)
	} else {
		promptEstimate := c.tracker.Estimator().EstimateText(req.Prompt)
		completionEstimate := c.tracker.Estimator().EstimateText(text)
		cost := c.calculator.PriceFor(model, promptEstimate, completionEstimate)
		rec = c.tracker.RecordCall(req.FileName, model, nil, cost, usage.WithEstimatedCompletion(completionEstimate))
	}

	return &Result{Text: text, Raw: raw, Record: rec}
}

func (c *Client) writeErrorLog(message string) {
	if c.errorLog == nil {
		return
	}
	if err := c.errorLog.LogError(message); err != nil {
		c.logger.Error("Failed to write error log", "error", err)
	}
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
