package main

import (
	"context"
	"fmt"
	"io"

	"firekey-hq/tally/pkg/cli"
	"firekey-hq/tally/pkg/processing"
	"firekey-hq/tally/pkg/prompts"
	"firekey-hq/tally/pkg/session"
	"firekey-hq/tally/pkg/telemetry/logging"
)

// batchOptions are the per-invocation knobs of a batch.
type batchOptions struct {
	force    bool
	workers  int
	rpm      int
	template *prompts.Template
	docType  string

	// status receives one line per file; nil disables it.
	status io.Writer
	// progress replaces the per-file lines with a progress bar.
	progress bool
}

// executeBatch runs jobs inside a tracking session. The session is closed,
// and its summary row written, on every exit path.
func (a *app) executeBatch(ctx context.Context, jobs []processing.Job, opts batchOptions) (*processing.Report, error) {
	sessOpts := []session.Option{
		session.WithOutput(a.out),
		session.WithLogger(a.log),
	}
	if a.store != nil {
		run, err := a.store.StartRun(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to start ledger run: %w", err)
		}
		ctx = logging.WithRunID(ctx, run.ID())
		sessOpts = append(sessOpts, session.WithSinks(run))
		a.log.Debug("Ledger run started", "run_id", run.ID())
	}
	sess := session.New(a.tracker, a.csv, sessOpts...)

	var progress cli.ProgressReporter
	if opts.progress && opts.status != nil {
		progress = cli.NewProgressReporter(opts.status)
		progress.Start(int64(len(jobs)))
	}

	procOpts := []processing.Option{
		processing.WithErrorLog(a.errorLog),
		processing.WithWorkers(opts.workers),
		processing.WithRequestsPerMinute(opts.rpm),
		processing.WithTracer(a.tracer.Tracer()),
		processing.WithLogger(a.log),
		processing.WithOutcomeHandler(func(o processing.Outcome) {
			a.metrics.ObserveOutcome(string(o.Status))
			if progress != nil {
				progress.Increment()
				return
			}
			if opts.status != nil {
				printOutcome(opts.status, o)
			}
		}),
	}
	if a.cache != nil {
		procOpts = append(procOpts, processing.WithCache(a.cache))
	}
	if opts.template != nil {
		procOpts = append(procOpts, processing.WithTemplate(opts.template, opts.docType))
	}
	proc := processing.NewProcessor(a.client, procOpts...)

	var report *processing.Report
	err := session.Run(sess, func(s *session.Session) error {
		var err error
		report, err = proc.Run(ctx, s, jobs, opts.force)
		return err
	})

	if progress != nil {
		if err != nil {
			progress.Error(err)
		} else {
			progress.Finish()
		}
	}
	if report != nil {
		fmt.Fprintln(a.out, report.String())
	}
	a.updateCacheSize(context.WithoutCancel(ctx))
	return report, err
}

func (a *app) updateCacheSize(ctx context.Context) {
	if a.cache == nil {
		return
	}
	names, err := a.cache.List(ctx)
	if err != nil {
		a.log.Warn("Failed to count cache entries", "error", err)
		return
	}
	a.metrics.UpdateCacheSize(len(names))
}

func printOutcome(w io.Writer, o processing.Outcome) {
	switch o.Status {
	case processing.StatusProcessed:
		cli.PrintStatus(w, cli.StatusSuccess, "%s", o.FileName)
	case processing.StatusCached:
		cli.PrintStatus(w, cli.StatusInfo, "%s (cached)", o.FileName)
	case processing.StatusSkipped:
		cli.PrintStatus(w, cli.StatusWarning, "%s skipped: %v", o.FileName, o.Err)
	case processing.StatusFailed:
		cli.PrintStatus(w, cli.StatusFailure, "%s failed: %v", o.FileName, o.Err)
	}
}
