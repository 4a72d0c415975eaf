package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"firekey-hq/tally/pkg/config"
)

// CallMetrics tracks tracked-client calls.
//
// Metrics:
//   - firekey_tally_calls_total: Finished calls by model and status
//   - firekey_tally_call_duration_seconds: Call wall time including retries
//   - firekey_tally_retries_total: Pauses before another attempt
//   - firekey_tally_tokens_total: Tokens attributed to successful calls
//   - firekey_tally_files_total: Files by final processing status
type CallMetrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
	retriesTotal *prometheus.CounterVec
	tokensTotal  *prometheus.CounterVec
	filesTotal   *prometheus.CounterVec
}

// NewCallMetrics creates and registers call metrics with the provided registry.
func NewCallMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CallMetrics {
	cm := &CallMetrics{
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "calls_total",
				Help:      "Total number of tracked calls by model and status",
			},
			[]string{"model", "status"},
		),

		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "call_duration_seconds",
				Help:      "Tracked call duration in seconds, including retries",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"model"},
		),

		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "retries_total",
				Help:      "Total number of retried attempts by model",
			},
			[]string{"model"},
		),

		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tokens_total",
				Help:      "Total tokens attributed to successful calls by model",
			},
			[]string{"model"},
		),

		filesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "files_total",
				Help:      "Total files by final processing status",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		cm.callsTotal,
		cm.callDuration,
		cm.retriesTotal,
		cm.tokensTotal,
		cm.filesTotal,
	)

	return cm
}

// RecordCall records one finished call.
func (cm *CallMetrics) RecordCall(model, status string, duration time.Duration) {
	cm.callsTotal.WithLabelValues(model, status).Inc()
	cm.callDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordRetry records a retried attempt.
func (cm *CallMetrics) RecordRetry(model string) {
	cm.retriesTotal.WithLabelValues(model).Inc()
}

// RecordTokens adds tokens for a model. Non-positive counts are ignored.
func (cm *CallMetrics) RecordTokens(model string, tokens int) {
	if tokens <= 0 {
		return
	}
	cm.tokensTotal.WithLabelValues(model).Add(float64(tokens))
}

// RecordFile counts a file outcome.
func (cm *CallMetrics) RecordFile(status string) {
	cm.filesTotal.WithLabelValues(status).Inc()
}
