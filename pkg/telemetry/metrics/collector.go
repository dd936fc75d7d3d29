package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config controls metric naming and exposure.
type Config struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`
	Path      string `yaml:"path"`

	// RuntimeMetrics registers the Go runtime and process collectors.
	RuntimeMetrics bool `yaml:"runtime_metrics"`
}

// DefaultConfig returns enabled metrics under infixast_render_*.
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		Namespace:      "infixast",
		Subsystem:      "render",
		Path:           "/metrics",
		RuntimeMetrics: true,
	}
}

// Render outcome labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Collector records rendering metrics.
//
// Metrics:
//   - <ns>_<sub>_renders_total{status}: trees rendered, by outcome
//   - <ns>_<sub>_failures_total{reason}: failed renders, by reason
//   - <ns>_<sub>_duration_seconds: time to render one tree
//   - <ns>_<sub>_tree_nodes: node count of rendered trees
//   - <ns>_<sub>_tree_depth: depth of rendered trees
//   - <ns>_<sub>_batch_size: trees per engine run
//
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	rendersTotal  *prometheus.CounterVec
	failuresTotal *prometheus.CounterVec
	duration      prometheus.Histogram
	treeNodes     prometheus.Histogram
	treeDepth     prometheus.Histogram
	batchSize     prometheus.Histogram
}

// NewCollector creates and registers the render metrics. If registry is nil a
// fresh one is created.
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "infixast"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "render"
	}

	c := &Collector{
		registry: registry,

		rendersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "renders_total",
				Help:      "Total number of trees rendered",
			},
			[]string{"status"},
		),

		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "failures_total",
				Help:      "Total number of failed renders by reason",
			},
			[]string{"reason"},
		),

		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "duration_seconds",
				Help:      "Time spent rendering a single tree",
				Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 12), // 1µs to ~4s
			},
		),

		treeNodes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tree_nodes",
				Help:      "Number of nodes in rendered trees",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
			},
		),

		treeDepth: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tree_depth",
				Help:      "Depth of rendered trees",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
		),

		batchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "batch_size",
				Help:      "Number of trees per engine run",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
	}

	registry.MustRegister(
		c.rendersTotal,
		c.failuresTotal,
		c.duration,
		c.treeNodes,
		c.treeDepth,
		c.batchSize,
	)
	if cfg.RuntimeMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	return c
}

// RecordRender records a successful render.
func (c *Collector) RecordRender(d time.Duration, nodes, depth int) {
	if c == nil {
		return
	}
	c.rendersTotal.WithLabelValues(StatusOK).Inc()
	c.duration.Observe(d.Seconds())
	c.treeNodes.Observe(float64(nodes))
	c.treeDepth.Observe(float64(depth))
}

// RecordFailure records a failed render. reason should come from a small
// fixed set (see engine.FailureReason) to bound label cardinality.
func (c *Collector) RecordFailure(reason string, d time.Duration) {
	if c == nil {
		return
	}
	c.rendersTotal.WithLabelValues(StatusError).Inc()
	c.failuresTotal.WithLabelValues(reason).Inc()
	c.duration.Observe(d.Seconds())
}

// RecordBatch records the size of one engine run.
func (c *Collector) RecordBatch(size int) {
	if c == nil {
		return
	}
	c.batchSize.Observe(float64(size))
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler exposing the registry in the Prometheus
// exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(
		c.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
		},
	)
}
