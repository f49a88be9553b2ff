// Package metrics defines the Prometheus collectors exported on /metrics
// and small helpers for recording them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP

var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"method", "path", "status"},
)

var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	},
	[]string{"method", "path"},
)

var HTTPRequestsInFlight = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
)

// Database

var DBQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
	},
	[]string{"operation"},
)

var DBErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_errors_total",
		Help: "Total number of failed database operations",
	},
	[]string{"operation"},
)

// Ingestion

// IngestRows counts data rows by outcome: stored or failed.
var IngestRows = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ingest_rows_total",
		Help: "Total number of CSV data rows processed",
	},
	[]string{"outcome"},
)

// IngestUploads counts uploads by final status.
var IngestUploads = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ingest_uploads_total",
		Help: "Total number of CSV uploads",
	},
	[]string{"status"},
)

// Events

var EventsPublished = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "events_published_total",
		Help: "Total number of product events written to the broker",
	},
	[]string{"status"},
)

// Upload statuses.
const (
	UploadOK       = "ok"
	UploadRejected = "rejected"
	UploadBusy     = "busy"
	UploadFailed   = "failed"
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DBTimer measures one store operation.
type DBTimer struct {
	operation string
	start     time.Time
}

// NewDBTimer starts timing operation.
func NewDBTimer(operation string) *DBTimer {
	return &DBTimer{operation: operation, start: time.Now()}
}

// Done records the elapsed time and counts err if non-nil. It returns err
// so callers can write `return t.Done(err)`.
func (t *DBTimer) Done(err error) error {
	DBQueryDuration.WithLabelValues(t.operation).Observe(time.Since(t.start).Seconds())
	if err != nil {
		DBErrors.WithLabelValues(t.operation).Inc()
	}
	return err
}

// RecordIngest counts the rows of a completed upload.
func RecordIngest(stored, failed int) {
	IngestRows.WithLabelValues("stored").Add(float64(stored))
	IngestRows.WithLabelValues("failed").Add(float64(failed))
	IngestUploads.WithLabelValues(UploadOK).Inc()
}

// RecordUpload counts an upload that did not produce a report.
func RecordUpload(status string) {
	IngestUploads.WithLabelValues(status).Inc()
}

// RecordEvents counts n events written with the given status.
func RecordEvents(status string, n int) {
	EventsPublished.WithLabelValues(status).Add(float64(n))
}
