// Package metrics exposes Prometheus instrumentation for the redaction
// pipeline and the HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/docveil/docveil/internal/pii"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the pipeline's metric instruments. All methods are safe
// for concurrent use.
type Recorder struct {
	registry *prometheus.Registry

	filesProcessed     prometheus.Counter
	filesFailed        prometheus.Counter
	itemsDetected      *prometheus.CounterVec
	processingDuration prometheus.Histogram
	httpRequests       *prometheus.CounterVec
}

// NewRecorder creates a recorder backed by its own registry.
func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		filesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "docveil_files_processed_total",
			Help: "Files that completed the full pipeline.",
		}),
		filesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "docveil_files_failed_total",
			Help: "Files that ended in the failed state.",
		}),
		itemsDetected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docveil_items_detected_total",
			Help: "Detected sensitive items by type.",
		}, []string{"type"}),
		processingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "docveil_processing_duration_seconds",
			Help:    "Per-file pipeline duration.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docveil_http_requests_total",
			Help: "HTTP requests by method, path, and status.",
		}, []string{"method", "path", "status"}),
	}
}

// FileProcessed records one successful pipeline run.
func (r *Recorder) FileProcessed(duration time.Duration) {
	r.filesProcessed.Inc()
	r.processingDuration.Observe(duration.Seconds())
}

// FileFailed records one failed pipeline run.
func (r *Recorder) FileFailed() {
	r.filesFailed.Inc()
}

// ItemsDetected records the detected item counts of one file.
func (r *Recorder) ItemsDetected(result pii.Result) {
	for typ, count := range result.CountsByType() {
		r.itemsDetected.WithLabelValues(string(typ)).Add(float64(count))
	}
}

// HTTPRequest records one served request.
func (r *Recorder) HTTPRequest(method, path string, status int) {
	r.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

// Handler serves the recorder's registry in Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
