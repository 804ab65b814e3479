// Package metrics provides Prometheus instrumentation for S3 streams.
//
// A nil *Metrics is valid and records nothing, so streams can be built
// without a registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session outcomes reported by SessionFinished.
const (
	OutcomeCommitted = "committed"
	OutcomeAborted   = "aborted"
	OutcomeEmpty     = "empty"
)

// Transfer directions reported by RecordBytes.
const (
	DirectionUpload   = "upload"
	DirectionDownload = "download"
)

// Metrics holds the stream collectors.
type Metrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTransferred  *prometheus.CounterVec
	partSize          prometheus.Histogram
	sessionsTotal     *prometheus.CounterVec
}

// New registers the stream collectors with reg.
//
// Returns nil if reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}

	return &Metrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "s3stream_operations_total",
				Help: "Total number of S3 operations by operation type and status",
			},
			[]string{"operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "s3stream_operation_duration_milliseconds",
				Help: "Duration of S3 operations in milliseconds",
				Buckets: []float64{
					10,    // 10ms - HEAD and small ranges
					50,    // 50ms
					100,   // 100ms
					500,   // 500ms
					1000,  // 1s - typical part upload
					5000,  // 5s
					10000, // 10s - large parts
					30000, // 30s
				},
			},
			[]string{"operation"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "s3stream_bytes_transferred_total",
				Help: "Total bytes moved through streams by direction",
			},
			[]string{"direction"},
		),
		partSize: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "s3stream_part_size_bytes",
				Help: "Distribution of uploaded part sizes",
				Buckets: []float64{
					1048576,   // 1MB - short tail parts
					5242880,   // 5MB - multipart minimum
					8388608,   // 8MB
					16777216,  // 16MB
					67108864,  // 64MB
					268435456, // 256MB
				},
			},
		),
		sessionsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "s3stream_upload_sessions_total",
				Help: "Total number of finished upload sessions by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveOperation records the outcome and latency of one remote call.
func (m *Metrics) ObserveOperation(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}

	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds() * 1000)
}

// RecordBytes adds n bytes to the transfer counter for direction.
func (m *Metrics) RecordBytes(direction string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.bytesTransferred.WithLabelValues(direction).Add(float64(n))
}

// ObservePart records the size of an uploaded part.
func (m *Metrics) ObservePart(size int) {
	if m == nil {
		return
	}
	m.partSize.Observe(float64(size))
}

// SessionFinished counts an upload session ending with outcome.
func (m *Metrics) SessionFinished(outcome string) {
	if m == nil {
		return
	}
	m.sessionsTotal.WithLabelValues(outcome).Inc()
}
