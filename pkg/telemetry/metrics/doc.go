// Package metrics exposes Prometheus metrics for tree rendering.
//
// A Collector owns its own registry so tests and multiple engines never
// collide on the global default registry:
//
//	collector := metrics.NewCollector(metrics.DefaultConfig(), nil)
//	mux.Handle("/metrics", collector.Handler())
package metrics
