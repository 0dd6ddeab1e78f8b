package history

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Block outcomes recorded in blocks_total.
const (
	outcomeAsked     = "asked"
	outcomeRetried   = "retried"
	outcomeCancelled = "cancelled"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "navhist").
	Namespace string

	// Subsystem is the metrics subsystem (default: "history").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for drain duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "navhist",
		Subsystem: "history",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the collectors shared by every History configured
// WithMetrics. Create one per registry.
type Metrics struct {
	navigations   *prometheus.CounterVec
	blocks        *prometheus.CounterVec
	queueDepth    prometheus.Gauge
	listeners     prometheus.Gauge
	drainDuration prometheus.Histogram
}

// NewMetrics registers the history collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of committed navigations",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		blocks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "blocks_total",
			Help:        "Navigation blocker decisions by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "queue_depth",
			Help:        "Navigations waiting in the task queue",
			ConstLabels: config.ConstLabels,
		}),

		listeners: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "listeners",
			Help:        "Registered location listeners",
			ConstLabels: config.ConstLabels,
		}),

		drainDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "drain_duration_seconds",
			Help:        "Time spent draining the task queue",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}

// The record helpers are nil-safe so a History without metrics pays nothing.

func (m *Metrics) recordCommitted(op string) {
	if m == nil {
		return
	}
	m.navigations.WithLabelValues(op).Inc()
}

func (m *Metrics) recordBlock(outcome string) {
	if m == nil {
		return
	}
	m.blocks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) recordQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}

func (m *Metrics) recordListeners(delta int) {
	if m == nil {
		return
	}
	m.listeners.Add(float64(delta))
}

func (m *Metrics) recordDrain(d time.Duration) {
	if m == nil {
		return
	}
	m.drainDuration.Observe(d.Seconds())
}
