package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"firekey-hq/tally/pkg/config"
)

// overflowModel replaces model labels once the cardinality limit is reached.
const overflowModel = "other"

// Collector records call, cost and cache metrics. It satisfies the observer
// interfaces of the client and cache packages, so one instance can be handed
// to both.
//
// All methods are no-ops when metrics are disabled.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	callMetrics  *CallMetrics
	costMetrics  *CostMetrics
	cacheMetrics *CacheMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	c := client.New(caller, tracker, calc, client.WithObserver(collector))
//	rc := cache.New(store, cache.WithObserver(collector))
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = "firekey"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "tally"
	}
	if len(cfg.DurationBuckets) == 0 {
		// One call including retries: 250ms up to the 3 attempts + 2 pauses worst case
		cfg.DurationBuckets = []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60}
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		callMetrics:        NewCallMetrics(cfg, registry),
		costMetrics:        NewCostMetrics(cfg, registry),
		cacheMetrics:       NewCacheMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}
}

// ObserveCall records one finished tracked call.
//
// Parameters:
//   - model: Model the call was made against
//   - status: "success" or "failure"
//   - duration: Wall time including retries and pauses
func (c *Collector) ObserveCall(model, status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.callMetrics.RecordCall(c.limitModel(model), status, duration)
}

// ObserveRetry records a pause before another attempt.
func (c *Collector) ObserveRetry(model string) {
	if !c.config.Enabled {
		return
	}
	c.callMetrics.RecordRetry(c.limitModel(model))
}

// ObserveUsage records the tokens and cost attributed to a successful call.
func (c *Collector) ObserveUsage(model string, tokens int, cost decimal.Decimal) {
	if !c.config.Enabled {
		return
	}
	model = c.limitModel(model)
	c.callMetrics.RecordTokens(model, tokens)
	c.costMetrics.RecordCallCost(model, cost)
}

// ObserveOutcome counts files by their final processing status.
func (c *Collector) ObserveOutcome(status string) {
	if !c.config.Enabled {
		return
	}
	c.callMetrics.RecordFile(status)
}

// ObserveCacheHit records a cache hit.
func (c *Collector) ObserveCacheHit() {
	if !c.config.Enabled {
		return
	}
	c.cacheMetrics.RecordHit()
}

// ObserveCacheMiss records a cache miss.
func (c *Collector) ObserveCacheMiss() {
	if !c.config.Enabled {
		return
	}
	c.cacheMetrics.RecordMiss()
}

// UpdateCacheSize updates the number of stored responses.
func (c *Collector) UpdateCacheSize(size int) {
	if !c.config.Enabled {
		return
	}
	c.cacheMetrics.UpdateSize(size)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) limitModel(model string) string {
	if !c.cardinalityLimiter.Allow(fmt.Sprintf("model:%s", model)) {
		return overflowModel
	}
	return model
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
