package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion pipeline metrics.
var (
	IngestDocsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kepler",
			Name:      "ingest_documents_total",
			Help:      "Documents processed by the ingestion pipeline",
		},
		[]string{"status"}, // "succeeded" / "failed"
	)

	IngestBatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "kepler",
			Name:      "ingest_batch_duration_seconds",
			Help:      "Embedding batch duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	IngestChunkDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "kepler",
			Name:      "ingest_chunk_duration_seconds",
			Help:      "Bulk upsert chunk duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
)

var ingestMetricsRegistered bool

// RegisterIngestMetrics registers Prometheus ingestion metrics. Must be called once from main.
func RegisterIngestMetrics() {
	if ingestMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestDocsTotal)
	prometheus.MustRegister(IngestBatchDuration)
	prometheus.MustRegister(IngestChunkDuration)
	ingestMetricsRegistered = true
}
