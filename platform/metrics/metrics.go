// Package metrics provides Prometheus instrumentation for the HTTP server and
// the domain services.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered for one process.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	recordOperations    *prometheus.CounterVec
	storageOperations   *prometheus.CounterVec
	uploadBytes         prometheus.Histogram
}

// New registers all collectors on a private registry using prefix for names.
func New(prefix string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		recordOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_record_operations_total",
				Help: "Total number of lead and property operations",
			},
			[]string{"entity", "operation", "outcome"},
		),
		storageOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_storage_operations_total",
				Help: "Total number of object storage operations",
			},
			[]string{"operation", "outcome"},
		),
		uploadBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    prefix + "_upload_bytes",
				Help:    "Size of uploaded lead documents in bytes",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
			},
		),
	}
}

// Middleware records count and latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordOperation counts a lead or property operation. A nil receiver is a no-op.
func (m *Metrics) RecordOperation(entity, operation string, err error) {
	if m == nil {
		return
	}
	m.recordOperations.WithLabelValues(entity, operation, outcome(err)).Inc()
}

// RecordStorage counts an object storage call. A nil receiver is a no-op.
func (m *Metrics) RecordStorage(operation string, err error) {
	if m == nil {
		return
	}
	m.storageOperations.WithLabelValues(operation, outcome(err)).Inc()
}

// ObserveUpload records the size of an accepted upload. A nil receiver is a no-op.
func (m *Metrics) ObserveUpload(size int64) {
	if m == nil {
		return
	}
	m.uploadBytes.Observe(float64(size))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
