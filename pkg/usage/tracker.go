package usage

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"firekey-hq/tally/pkg/processing/costs"
	"firekey-hq/tally/pkg/processing/tokens"
)

// Tracker accumulates usage records for a run. It is safe for concurrent use.
type Tracker struct {
	estimator tokens.Estimator
	sink      io.Writer
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	records []*Record
	notes   map[string]int
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithSink sets where status lines are written. Default: os.Stdout.
func WithSink(w io.Writer) Option {
	return func(t *Tracker) { t.sink = w }
}

// WithLogger sets the logger used for estimate diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

// WithClock overrides the record timestamp source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker creates a tracker that estimates prompts with estimator.
func NewTracker(estimator tokens.Estimator, opts ...Option) *Tracker {
	if estimator == nil {
		estimator = tokens.NewSimpleEstimator(nil)
	}
	t := &Tracker{
		estimator: estimator,
		sink:      os.Stdout,
		logger:    slog.Default(),
		now:       time.Now,
		notes:     make(map[string]int),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With("component", "usage.tracker")
	return t
}

// Estimator returns the estimator used for prompts.
func (t *Tracker) Estimator() tokens.Estimator {
	return t.estimator
}

// BeforeCall estimates the prompt and remembers the estimate for fileName so
// RecordCall can attach it. It never performs I/O. A prompt the estimator
// cannot read (for example a binary file) is logged and estimated as 0.
func (t *Tracker) BeforeCall(fileName, prompt, model string) int {
	estimate, err := t.estimator.EstimateValue(prompt)
	if err != nil {
		t.logger.Warn("Prompt token estimation failed, using zero estimate",
			"file", fileName,
			"model", model,
			"error", err,
		)
		estimate = 0
	}

	t.mu.Lock()
	t.notes[fileName] = estimate
	t.mu.Unlock()

	t.logger.Debug("Estimated prompt tokens",
		"file", fileName,
		"model", model,
		"estimated_prompt_tokens", estimate,
	)
	return estimate
}

// Forget drops the pending estimate for fileName. Call it when a call ends
// without a record.
func (t *Tracker) Forget(fileName string) {
	t.mu.Lock()
	delete(t.notes, fileName)
	t.mu.Unlock()
}

// Pending returns the number of estimates still waiting for a record.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.notes)
}

// RecordOption adjusts a record before it is stored.
type RecordOption func(*Record)

// WithEstimatedCompletion sets the completion estimate used when the
// response carried no usage.
func WithEstimatedCompletion(n int) RecordOption {
	return func(r *Record) { r.EstimatedCompletionTokens = n }
}

// RecordCall appends the record for a successful call and writes its status
// line to the sink. A nil u marks the cost as estimated.
func (t *Tracker) RecordCall(fileName, model string, u *Usage, cost costs.Cost, opts ...RecordOption) *Record {
	rec := &Record{
		FileName:     fileName,
		Model:        model,
		Cost:         cost.Amount,
		Timestamp:    t.now().UTC(),
		FallbackRate: cost.Fallback,
	}
	if u != nil {
		prompt, completion, total := u.PromptTokens, u.CompletionTokens, u.TotalTokens
		rec.ActualPromptTokens = &prompt
		rec.CompletionTokens = &completion
		rec.TotalTokens = &total
	} else {
		rec.CostEstimated = true
	}
	for _, opt := range opts {
		opt(rec)
	}

	t.mu.Lock()
	rec.EstimatedPromptTokens = t.notes[fileName]
	delete(t.notes, fileName)
	t.records = append(t.records, rec)
	// Status lines are written under the lock so concurrent records never interleave.
	if _, err := fmt.Fprintln(t.sink, rec.StatusLine()); err != nil {
		t.logger.Warn("Failed to write status line", "file", fileName, "error", err)
	}
	t.mu.Unlock()

	if rec.ActualPromptTokens != nil {
		t.logger.Debug("Recorded call",
			"file", fileName,
			"model", model,
			"estimated_prompt_tokens", rec.EstimatedPromptTokens,
			"actual_prompt_tokens", *rec.ActualPromptTokens,
			"delta", *rec.ActualPromptTokens-rec.EstimatedPromptTokens,
		)
	} else {
		t.logger.Warn("Usage missing from response, cost estimated",
			"file", fileName,
			"model", model,
			"estimated_prompt_tokens", rec.EstimatedPromptTokens,
			"estimated_completion_tokens", rec.EstimatedCompletionTokens,
		)
	}
	if rec.FallbackRate {
		t.logger.Warn("No pricing for model, default rate used", "model", model)
	}

	return rec
}

// Records returns a copy of the recorded sequence in insertion order.
func (t *Tracker) Records() []*Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Record, len(t.records))
	copy(out, t.records)
	return out
}

// Summary aggregates every record so far. It has no side effects.
func (t *Tracker) Summary() *Summary {
	return Summarize(t.Records())
}
