// Package metrics provides Prometheus metrics for tracked calls, estimated
// spend and the response cache.
//
// # Metrics Categories
//
//   - Call Metrics: call count by status, duration, retries, tokens, file outcomes
//   - Cost Metrics: total and per-call estimated cost by model
//   - Cache Metrics: hits, misses and stored entries
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	c := client.New(caller, tracker, calc, client.WithObserver(collector))
//	rc := cache.New(store, cache.WithObserver(collector))
//
//	if _, err := collector.Serve(ctx, ":9090", "/metrics", logger); err != nil {
//		return err
//	}
//
// Model labels are capped by a CardinalityLimiter; models beyond the cap are
// reported as "other".
package metrics
