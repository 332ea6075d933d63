package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics tracks the per-user aggregate cache.
type CacheMetrics struct {
	Hits          *prometheus.CounterVec
	Misses        *prometheus.CounterVec
	Invalidations prometheus.Counter
}

func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregate_cache",
			Name:      "hits_total",
			Help:      "Total number of aggregate cache hits, by layer.",
		}, []string{"layer"}),
		Misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregate_cache",
			Name:      "misses_total",
			Help:      "Total number of aggregate cache misses, by layer.",
		}, []string{"layer"}),
		Invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregate_cache",
			Name:      "invalidations_total",
			Help:      "Total number of aggregate cache invalidations.",
		}),
	}

	reg.MustRegister(m.Hits, m.Misses, m.Invalidations)
	return m
}

func (m *CacheMetrics) Hit(layer string) {
	if m != nil {
		m.Hits.WithLabelValues(layer).Inc()
	}
}

func (m *CacheMetrics) Miss(layer string) {
	if m != nil {
		m.Misses.WithLabelValues(layer).Inc()
	}
}

func (m *CacheMetrics) Invalidated() {
	if m != nil {
		m.Invalidations.Inc()
	}
}
