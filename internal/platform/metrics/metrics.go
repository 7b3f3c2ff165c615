package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the reconciler.
type Metrics struct {
	RowsProcessed   prometheus.Counter
	RowsDeduped     prometheus.Counter
	RowsRejected    *prometheus.CounterVec
	EventsCommitted prometheus.Counter
	BatchesRun      *prometheus.CounterVec
	BatchDuration   prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RowsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "shelfsync_rows_processed_total",
			Help: "Raw rows read from the upstream source",
		}),
		RowsDeduped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "shelfsync_rows_deduped_total",
			Help: "Rows dropped as redeliveries of an already-seen logical event",
		}),
		RowsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "shelfsync_rows_rejected_total",
			Help: "Rows written to the rejection log, by reason code",
		}, []string{"reason"}),
		EventsCommitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "shelfsync_events_committed_total",
			Help: "Resolved events appended to the transaction ledger",
		}),
		BatchesRun: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "shelfsync_batches_total",
			Help: "Batch runs by outcome (committed, empty, conflict, failed)",
		}, []string{"outcome"}),
		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "shelfsync_batch_duration_seconds",
			Help:    "Wall time of a full batch run",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
