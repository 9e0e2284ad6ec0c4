// Package metrics provides Prometheus metrics for ndstore
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for ndstore. It implements
// collection.Observer.
type Metrics struct {
	// Collection operation metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	Records           prometheus.Gauge

	// Index maintenance metrics
	IndexRebuildsTotal   prometheus.Counter
	IndexRebuildDuration prometheus.Histogram

	// Storage metrics
	StorageBytesTotal *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal *prometheus.CounterVec

	StartTime time.Time
}

// New creates all metrics and registers them with reg. A nil reg leaves
// the metrics unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		StartTime: time.Now(),
	}

	m.OperationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ndstore_operations_total",
			Help: "Total number of collection operations",
		},
		[]string{"operation", "status"},
	)

	m.OperationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ndstore_operation_duration_seconds",
			Help:    "Duration of collection operations in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"operation"},
	)

	m.Records = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "ndstore_records",
			Help: "Number of records in the collection",
		},
	)

	m.IndexRebuildsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "ndstore_index_rebuilds_total",
			Help: "Total number of full index rebuilds",
		},
	)

	m.IndexRebuildDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ndstore_index_rebuild_duration_seconds",
			Help:    "Duration of full index rebuilds in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	m.StorageBytesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ndstore_storage_bytes_total",
			Help: "Total bytes written to or read from storage",
		},
		[]string{"operation"},
	)

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ndstore_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"path", "status"},
	)

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "ndstore_uptime_seconds",
			Help: "Seconds since the metrics were created",
		},
		func() float64 { return time.Since(m.StartTime).Seconds() },
	)

	return m
}

// ObserveOp records a collection operation with its status
func (m *Metrics) ObserveOp(operation string, status string, duration time.Duration) {
	m.OperationsTotal.WithLabelValues(operation, status).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveRecords sets the record count
func (m *Metrics) ObserveRecords(n int) {
	m.Records.Set(float64(n))
}

// ObserveRebuild records a full index rebuild
func (m *Metrics) ObserveRebuild(duration time.Duration) {
	m.IndexRebuildsTotal.Inc()
	m.IndexRebuildDuration.Observe(duration.Seconds())
}

// ObserveBytes adds n bytes to the storage counter for operation
func (m *Metrics) ObserveBytes(operation string, n int) {
	m.StorageBytesTotal.WithLabelValues(operation).Add(float64(n))
}

// RecordHTTPRequest counts a served HTTP request
func (m *Metrics) RecordHTTPRequest(path string, status string) {
	m.HTTPRequestsTotal.WithLabelValues(path, status).Inc()
}
