package processing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"firekey-hq/tally/pkg/cache"
	"firekey-hq/tally/pkg/client"
	"firekey-hq/tally/pkg/prompts"
	"firekey-hq/tally/pkg/providers"
	"firekey-hq/tally/pkg/session"
	"firekey-hq/tally/pkg/telemetry/tracing"
)

// Processor runs a batch of jobs through the cache and the tracked client and
// records every live call in a session. It is safe for concurrent use.
type Processor struct {
	client   *client.Client
	cache    *cache.ResponseCache
	errorLog client.ErrorLog
	limiter  *rate.Limiter
	workers  int

	template *prompts.Template
	docType  string

	extract   providers.CompletionExtractor
	onOutcome func(Outcome)
	tracer    trace.Tracer
	logger    *slog.Logger
	readFile  func(string) ([]byte, error)
}

// Option configures a Processor.
type Option func(*Processor)

// WithCache enables the response cache. Without it every job is a live call.
func WithCache(c *cache.ResponseCache) Option {
	return func(p *Processor) { p.cache = c }
}

// WithErrorLog sets where skipped files are reported.
func WithErrorLog(log client.ErrorLog) Option {
	return func(p *Processor) { p.errorLog = log }
}

// WithWorkers sets how many jobs run concurrently. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n < 1 {
			n = 1
		}
		p.workers = n
	}
}

// WithRequestsPerMinute paces live calls. 0 disables pacing.
func WithRequestsPerMinute(rpm int) Option {
	return func(p *Processor) {
		if rpm <= 0 {
			p.limiter = nil
			return
		}
		p.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
	}
}

// WithTemplate renders file content through t, with docType as {type}.
func WithTemplate(t *prompts.Template, docType string) Option {
	return func(p *Processor) {
		p.template = t
		p.docType = docType
	}
}

// WithOutcomeHandler is called once per job as it completes. Calls are
// serialized.
func WithOutcomeHandler(fn func(Outcome)) Option {
	return func(p *Processor) { p.onOutcome = fn }
}

// WithCompletionExtractor sets the extractor applied to cached responses.
func WithCompletionExtractor(fn providers.CompletionExtractor) Option {
	return func(p *Processor) { p.extract = fn }
}

// WithTracer sets the tracer used for per-file spans.
func WithTracer(t trace.Tracer) Option {
	return func(p *Processor) { p.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) { p.logger = logger }
}

// NewProcessor creates a processor around c.
func NewProcessor(c *client.Client, opts ...Option) *Processor {
	p := &Processor{
		client:   c,
		workers:  1,
		extract:  providers.DefaultCompletionExtractor,
		tracer:   otel.Tracer(tracing.InstrumentationName),
		logger:   slog.Default(),
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "processing")
	return p
}

// Run processes jobs and records live calls in sess. Per-job failures are
// reported in the Report and never stop the batch. Cancelling ctx stops
// scheduling new jobs; the returned error is then ctx.Err(). Closing sess is
// the caller's responsibility.
func (p *Processor) Run(ctx context.Context, sess *session.Session, jobs []Job, force bool) (*Report, error) {
	outcomes := make([]*Outcome, len(jobs))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		next   = make(chan int)
		notify = func(o Outcome) {
			if p.onOutcome == nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			p.onOutcome(o)
		}
	)

	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				if ctx.Err() != nil {
					continue
				}
				o := p.process(ctx, sess, jobs[i], force)
				outcomes[i] = &o
				notify(o)
			}
		}()
	}

	var cancelled error
schedule:
	for i := range jobs {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		select {
		case next <- i:
		case <-ctx.Done():
			cancelled = ctx.Err()
			break schedule
		}
	}
	close(next)
	wg.Wait()

	report := &Report{}
	for _, o := range outcomes {
		if o == nil {
			report.NotStarted++
			continue
		}
		report.add(*o)
	}

	if cancelled != nil {
		p.logger.Warn("Batch cancelled", "completed", len(report.Outcomes), "not_started", report.NotStarted)
		return report, cancelled
	}
	return report, nil
}

func (p *Processor) process(ctx context.Context, sess *session.Session, job Job, force bool) Outcome {
	ctx, span := p.tracer.Start(ctx, "firekey.file", trace.WithAttributes(
		attribute.String(tracing.AttrFile, job.FileName),
	))
	defer span.End()

	out := p.processFile(ctx, sess, job, force)

	span.SetAttributes(attribute.String(tracing.AttrStatus, string(out.Status)))
	if out.Status != StatusSkipped {
		tracing.SetCacheAttributes(span, out.Status == StatusCached, force)
	}
	if out.Status == StatusFailed {
		tracing.RecordError(span, out.Err)
	}
	return out
}

func (p *Processor) processFile(ctx context.Context, sess *session.Session, job Job, force bool) Outcome {
	out := Outcome{FileName: job.FileName}

	req, err := p.request(job)
	if err != nil {
		out.Status = StatusSkipped
		out.Err = err
		p.logError(skipMessage(job.Path, err))
		p.logger.Warn("Skipping file", "file", job.FileName, "error", err)
		return out
	}

	var result *client.Result
	fill := func(ctx context.Context) ([]byte, error) {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		r, err := p.client.Call(ctx, req)
		if err != nil {
			return nil, err
		}
		result = r
		return r.Raw, nil
	}

	var (
		entry *cache.Entry
		hit   bool
	)
	if p.cache != nil {
		entry, hit, err = p.cache.Resolve(ctx, job.FileName, force, fill)
	} else {
		var raw []byte
		raw, err = fill(ctx)
		entry = &cache.Entry{FileName: job.FileName, RawResponse: raw}
	}
	if err != nil {
		out.Status = StatusFailed
		out.Err = err
		return out
	}

	out.Raw = entry.RawResponse
	if hit {
		out.Status = StatusCached
		out.Text, _ = p.extract(entry.RawResponse)
		p.logger.Info("Using cached response", "file", job.FileName, "cached_at", entry.CachedAt)
		return out
	}

	out.Status = StatusProcessed
	out.Text = result.Text
	out.Record = result.Record
	if err := sess.Record(result.Record); err != nil {
		var closed *session.SessionClosedError
		if errors.As(err, &closed) {
			out.Status = StatusFailed
			out.Err = err
			return out
		}
		p.logger.Error("Failed to record usage", "file", job.FileName, "error", err)
	}
	return out
}

// request builds the client request for job, reading and rendering its file
// when no prompt was given.
func (p *Processor) request(job Job) (client.Request, error) {
	req := client.Request{
		FileName:     job.FileName,
		Prompt:       job.Prompt,
		Model:        job.Model,
		Options:      providers.Options{System: job.System},
		ReturnRecord: true,
	}
	if req.Prompt != "" {
		return req, nil
	}

	data, err := p.readFile(job.Path)
	if err != nil {
		return req, &SkipError{Path: job.Path, Cause: err}
	}

	if p.template == nil {
		req.Prompt = string(data)
		return req, nil
	}
	rendered := p.template.Render(p.docType, string(data))
	req.Prompt = rendered.User
	if req.Options.System == "" {
		req.Options.System = rendered.System
	}
	return req, nil
}

func skipMessage(path string, err error) string {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Sprintf("File '%s' does not exist; skipping processing.", path)
	}
	return fmt.Sprintf("File '%s' could not be read; skipping processing: %v", path, errors.Unwrap(err))
}

func (p *Processor) logError(message string) {
	if p.errorLog == nil {
		return
	}
	if err := p.errorLog.LogError(message); err != nil {
		p.logger.Error("Failed to write error log", "error", err)
	}
}
