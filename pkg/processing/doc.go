// Package processing runs batches of files through the tracked client.
//
// For each Job the Processor reads the input file (unless a prompt is given),
// optionally renders it through a prompt template, and resolves it against
// the response cache. A miss makes a live call through client.Client and the
// resulting usage record is appended to the session; a hit returns the cached
// response without accounting.
//
//	proc := processing.NewProcessor(c,
//		processing.WithCache(responses),
//		processing.WithErrorLog(errorLog),
//		processing.WithWorkers(cfg.Batch.Workers),
//	)
//	err := session.Run(sess, func(s *session.Session) error {
//		report, err := proc.Run(ctx, s, jobs, force)
//		...
//	})
//
// # Subpackages
//
//   - tokens: prompt token estimation
//   - costs: model pricing and cost calculation
//
// # Concurrency
//
// With one worker (the default) files are processed strictly in order. With
// more, the tracker and ledger serialize their own appends and the cache
// admits one writer per file name. Missing input files are written to the
// error log and skipped; a failed file never stops the batch.
package processing
