package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	HTTPAttemptsTotal   *prometheus.CounterVec
	HTTPAttemptDuration *prometheus.HistogramVec
	RowsTotal           *prometheus.CounterVec
	ImagesTotal         *prometheus.CounterVec
	ImageBytesTotal     prometheus.Counter
	RunsInQueue         prometheus.Gauge
	APIRequestsTotal    *prometheus.CounterVec
	APIRequestDuration  *prometheus.HistogramVec
}

// New registers the metrics on reg. Pass prometheus.DefaultRegisterer to expose
// them through promhttp.Handler.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPAttemptsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_http_attempts_total",
			Help: "Outbound HTTP attempts by outcome.",
		}, []string{"outcome"}), // "ok", "retry_status", "transport_error"
		HTTPAttemptDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scraper_http_request_duration_seconds",
			Help:    "Duration of outbound HTTP attempts.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"method"}),
		RowsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_rows_total",
			Help: "Processed product rows by terminal status.",
		}, []string{"status"}),
		ImagesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_images_total",
			Help: "Attempted image downloads by result.",
		}, []string{"result"}),
		ImageBytesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "scraper_image_bytes_total",
			Help: "Bytes written to disk for downloaded images.",
		}),
		RunsInQueue: f.NewGauge(prometheus.GaugeOpts{
			Name: "scraper_runs_in_queue",
			Help: "Current number of batch runs waiting in the queue.",
		}),
		APIRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		APIRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

func (m *Metrics) ObserveHTTPAttempt(method, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPAttemptsTotal.WithLabelValues(outcome).Inc()
	m.HTTPAttemptDuration.WithLabelValues(method).Observe(seconds)
}

func (m *Metrics) IncRow(status string) {
	if m == nil {
		return
	}
	m.RowsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) IncImage(result string, bytes int64) {
	if m == nil {
		return
	}
	m.ImagesTotal.WithLabelValues(result).Inc()
	if bytes > 0 {
		m.ImageBytesTotal.Add(float64(bytes))
	}
}

func (m *Metrics) SetRunsInQueue(n int64) {
	if m == nil {
		return
	}
	m.RunsInQueue.Set(float64(n))
}

func (m *Metrics) ObserveAPIRequest(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.APIRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
}
