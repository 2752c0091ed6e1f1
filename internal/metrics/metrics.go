// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BatchesIngestedTotal counts full batches that replaced the working set
	BatchesIngestedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caramelo_batches_ingested_total",
			Help: "Total number of packet batches ingested",
		},
		[]string{"source"},
	)

	// BatchPackets tracks the size of the current working batch
	BatchPackets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "caramelo_batch_packets",
			Help: "Number of packets in the current batch",
		},
	)

	// SourceErrorsTotal counts failed fetches from a packet source
	SourceErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "caramelo_source_errors_total",
			Help: "Total number of failed batch fetches",
		},
		[]string{"source"},
	)

	// RecordsRejectedTotal counts records dropped from a batch because they could not be decoded
	RecordsRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "caramelo_records_rejected_total",
			Help: "Total number of packet records skipped because they could not be decoded",
		},
	)

	// PredicateFailOpenTotal counts records passed because their predicate evaluation failed
	PredicateFailOpenTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "caramelo_predicate_fail_open_total",
			Help: "Total number of records included because the predicate could not be evaluated",
		},
	)

	// ViewComputeSeconds measures filter + sort + detail computation per view
	ViewComputeSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "caramelo_view_compute_seconds",
			Help:    "Latency of view computation in seconds",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 16),
		},
	)

	// ConnectedClients tracks open operator sessions
	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "caramelo_connected_clients",
			Help: "Number of connected operator clients",
		},
	)
)
