package metrics

import "github.com/prometheus/client_golang/prometheus"

// EventMetrics tracks published analysis events and export archives.
type EventMetrics struct {
	Published *prometheus.CounterVec
	Archives  *prometheus.CounterVec
}

func NewEventMetrics(reg prometheus.Registerer) *EventMetrics {
	m := &EventMetrics{
		Published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of analysis events, by subject and result.",
		}, []string{"subject", "result"}),
		Archives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "archives_total",
			Help:      "Total number of export archive uploads, by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.Published, m.Archives)
	return m
}

func (m *EventMetrics) RecordPublish(subject, result string) {
	if m != nil {
		m.Published.WithLabelValues(subject, result).Inc()
	}
}

func (m *EventMetrics) RecordArchive(result string) {
	if m != nil {
		m.Archives.WithLabelValues(result).Inc()
	}
}
