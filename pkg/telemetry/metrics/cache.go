package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"firekey-hq/tally/pkg/config"
)

// CacheMetrics tracks response cache performance.
//
// Metrics:
//   - firekey_tally_cache_hits_total: Lookups served from the cache
//   - firekey_tally_cache_misses_total: Lookups that went to the provider
//   - firekey_tally_cache_entries: Stored responses
//
// Hit rate is a PromQL concern:
//
//	rate(firekey_tally_cache_hits_total[5m]) /
//	(rate(firekey_tally_cache_hits_total[5m]) + rate(firekey_tally_cache_misses_total[5m]))
type CacheMetrics struct {
	hitsTotal   prometheus.Counter
	missesTotal prometheus.Counter
	entries     prometheus.Gauge
}

// NewCacheMetrics creates and registers cache metrics with the provided registry.
func NewCacheMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		hitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
		),

		missesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
		),

		entries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_entries",
				Help:      "Current number of stored responses",
			},
		),
	}

	registry.MustRegister(
		cm.hitsTotal,
		cm.missesTotal,
		cm.entries,
	)

	return cm
}

// RecordHit records a cache hit.
func (cm *CacheMetrics) RecordHit() {
	cm.hitsTotal.Inc()
}

// RecordMiss records a cache miss.
func (cm *CacheMetrics) RecordMiss() {
	cm.missesTotal.Inc()
}

// UpdateSize updates the number of stored responses.
func (cm *CacheMetrics) UpdateSize(size int) {
	cm.entries.Set(float64(size))
}
