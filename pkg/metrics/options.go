// Package metrics provides Prometheus metrics for the jet tagging service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace replaces the "jettag" metric namespace.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem replaces the "tagger" metric subsystem.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		if subsystem != "" {
			m.subsystem = subsystem
		}
	}
}

// WithLatencyBuckets sets the millisecond buckets shared by the event, oracle,
// queue, worker and HTTP latency histograms.
func WithLatencyBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if validBuckets(buckets) {
			m.latencyBuckets = buckets
		}
	}
}

// WithMicrojetBuckets sets the buckets of the microjets-per-jet histogram.
// Runs with a larger max_microjets need wider buckets than the default cap of 7.
func WithMicrojetBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if validBuckets(buckets) {
			m.microjetBuckets = buckets
		}
	}
}

// WithConstituentBuckets sets the buckets of the constituents-per-jet histogram.
func WithConstituentBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if validBuckets(buckets) {
			m.constituentBuckets = buckets
		}
	}
}

// WithConstLabels attaches constant labels such as dataset or campaign.
func WithConstLabels(labels map[string]string) Option {
	return func(m *Manager) {
		if labels != nil {
			m.constLabels = labels
		}
	}
}

// WithPrometheusRegistry registers the metrics on registry instead of the
// default registerer.
func WithPrometheusRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// validBuckets reports whether buckets are non-empty and strictly increasing;
// prometheus panics on anything else.
func validBuckets(buckets []float64) bool {
	for i := 1; i < len(buckets); i++ {
		if buckets[i] <= buckets[i-1] {
			return false
		}
	}
	return len(buckets) > 0
}
