package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"firekey-hq/tally/pkg/config"
)

// CostMetrics tracks estimated spend.
//
// Metrics:
//   - firekey_tally_cost_usd_total: Estimated cost in USD by model
//   - firekey_tally_cost_per_call_usd: Cost distribution per call (histogram)
//
// Costs are carried as decimals everywhere else; they are converted to
// float64 only at this boundary.
type CostMetrics struct {
	costTotal   *prometheus.CounterVec
	costPerCall *prometheus.HistogramVec
}

// NewCostMetrics creates and registers cost metrics with the provided registry.
func NewCostMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CostMetrics {
	cm := &CostMetrics{
		costTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cost_usd_total",
				Help:      "Total estimated cost in USD by model",
			},
			[]string{"model"},
		),

		costPerCall: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cost_per_call_usd",
				Help:      "Estimated cost distribution per call in USD",
				Buckets:   []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"model"},
		),
	}

	registry.MustRegister(
		cm.costTotal,
		cm.costPerCall,
	)

	return cm
}

// RecordCallCost records the cost of a single call. Zero and negative costs
// are ignored.
func (cm *CostMetrics) RecordCallCost(model string, cost decimal.Decimal) {
	if !cost.IsPositive() {
		return
	}
	usd := cost.InexactFloat64()
	cm.costTotal.WithLabelValues(model).Add(usd)
	cm.costPerCall.WithLabelValues(model).Observe(usd)
}
