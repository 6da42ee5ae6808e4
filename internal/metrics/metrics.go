// Package metrics exposes the pipeline's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the pipeline counters and histograms. A nil *Metrics is a
// valid no-op instance, so callers never need to guard instrumentation sites.
type Metrics struct {
	parsesTotal     *prometheus.CounterVec
	recoveriesTotal *prometheus.CounterVec
	cacheHitsTotal  prometheus.Counter
	parseDuration   prometheus.Histogram
}

// New registers the pipeline metrics on the given registerer
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		parsesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledgerlens",
			Name:      "parses_total",
			Help:      "Parse attempts by classified format and outcome.",
		}, []string{"format", "outcome"}),
		recoveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledgerlens",
			Name:      "recoveries_total",
			Help:      "Recovery attempts by error category.",
		}, []string{"category"}),
		cacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledgerlens",
			Name:      "cache_hits_total",
			Help:      "Parse results served from the result cache.",
		}),
		parseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ledgerlens",
			Name:      "parse_duration_seconds",
			Help:      "End-to-end parse latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}

	reg.MustRegister(m.parsesTotal, m.recoveriesTotal, m.cacheHitsTotal, m.parseDuration)
	return m
}

// ObserveParse records one parse attempt
func (m *Metrics) ObserveParse(format, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.parsesTotal.WithLabelValues(format, outcome).Inc()
	m.parseDuration.Observe(seconds)
}

// ObserveRecovery records one recovery attempt
func (m *Metrics) ObserveRecovery(category string) {
	if m == nil {
		return
	}
	m.recoveriesTotal.WithLabelValues(category).Inc()
}

// ObserveCacheHit records a parse served from cache
func (m *Metrics) ObserveCacheHit() {
	if m == nil {
		return
	}
	m.cacheHitsTotal.Inc()
}
