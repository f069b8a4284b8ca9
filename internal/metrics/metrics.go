package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics defines the counters the upload path and the pipeline report.
type Metrics interface {
	IncUploads(status string)
	ObserveUploadBytes(n int64)
	IncJobsCompleted(outcome string)
	ObserveStageDuration(stage string, durationSeconds float64)
	SetQueueDepth(depth int)
	IncCleanups(status string)
}

// Noop implements Metrics without emitting anything.
type Noop struct{}

func (Noop) IncUploads(string)                    {}
func (Noop) ObserveUploadBytes(int64)             {}
func (Noop) IncJobsCompleted(string)              {}
func (Noop) ObserveStageDuration(string, float64) {}
func (Noop) SetQueueDepth(int)                    {}
func (Noop) IncCleanups(string)                   {}

// Prom implements Metrics backed by Prometheus collectors.
type Prom struct {
	uploads       *prometheus.CounterVec
	uploadBytes   prometheus.Histogram
	jobsCompleted *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	queueDepth    prometheus.Gauge
	cleanups      *prometheus.CounterVec
	once          sync.Once
}

func NewProm(namespace string) *Prom {
	p := &Prom{
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Upload requests by status",
		}, []string{"status"}),
		uploadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_bytes",
			Help:      "Size of accepted uploads",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 2, 10),
		}),
		jobsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_completed_total",
			Help:      "Pipeline jobs by outcome",
		}, []string{"outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Jobs waiting for a worker",
		}),
		cleanups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanups_total",
			Help:      "Upload artifact deletions by status",
		}, []string{"status"}),
	}
	p.register()
	return p
}

func (p *Prom) register() {
	p.once.Do(func() {
		prometheus.MustRegister(p.uploads, p.uploadBytes, p.jobsCompleted, p.stageDuration, p.queueDepth, p.cleanups)
	})
}

func (p *Prom) IncUploads(status string) {
	p.uploads.WithLabelValues(status).Inc()
}

func (p *Prom) ObserveUploadBytes(n int64) {
	p.uploadBytes.Observe(float64(n))
}

func (p *Prom) IncJobsCompleted(outcome string) {
	p.jobsCompleted.WithLabelValues(outcome).Inc()
}

func (p *Prom) ObserveStageDuration(stage string, durationSeconds float64) {
	p.stageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

func (p *Prom) SetQueueDepth(depth int) {
	p.queueDepth.Set(float64(depth))
}

func (p *Prom) IncCleanups(status string) {
	p.cleanups.WithLabelValues(status).Inc()
}

// Handler returns an HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
