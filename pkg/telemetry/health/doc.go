// Package health exposes liveness and readiness endpoints for a running
// batch.
//
// Readiness runs the registered component checks concurrently, each bounded
// by the checker's timeout:
//
//	checker := health.New(2 * time.Second)
//	checker.Register("cache", func(ctx context.Context) error {
//		_, err := rc.List(ctx)
//		return err
//	})
//	checker.Register("ledger", store.Ping)
//
// The handlers are mounted on the metrics listener (see metrics.Serve), so
// they are only served when a metrics address is configured.
package health
