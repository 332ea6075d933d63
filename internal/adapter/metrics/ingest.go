package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// IngestMetrics tracks record creation and batch ingestion.
type IngestMetrics struct {
	RecordsCreated *prometheus.CounterVec
	RowsSkipped    prometheus.Counter
	BatchDuration  prometheus.Histogram
	RecordsDeleted prometheus.Counter
}

func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	m := &IngestMetrics{
		RecordsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "records_created_total",
			Help:      "Total number of analysis records created, by ingestion mode.",
		}, []string{"mode"}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "rows_skipped_total",
			Help:      "Total number of batch rows skipped because they held no usable text.",
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "batch_duration_seconds",
			Help:      "Duration of batch ingestion, scoring through bulk insert.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RecordsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "records_deleted_total",
			Help:      "Total number of analysis records deleted.",
		}),
	}

	reg.MustRegister(m.RecordsCreated, m.RowsSkipped, m.BatchDuration, m.RecordsDeleted)
	return m
}

func (m *IngestMetrics) Created(mode string, n int) {
	if m != nil && n > 0 {
		m.RecordsCreated.WithLabelValues(mode).Add(float64(n))
	}
}

func (m *IngestMetrics) Skipped(n int) {
	if m != nil && n > 0 {
		m.RowsSkipped.Add(float64(n))
	}
}

func (m *IngestMetrics) ObserveBatch(d time.Duration) {
	if m != nil {
		m.BatchDuration.Observe(d.Seconds())
	}
}

func (m *IngestMetrics) Deleted() {
	if m != nil {
		m.RecordsDeleted.Inc()
	}
}
