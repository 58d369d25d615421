package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcomes recorded on publish_jobs_processed_total.
const (
	OutcomeCompleted = "completed"
	OutcomeRetrying  = "retrying"
	OutcomeFailed    = "failed"
)

// Metrics owns its registry so tests and multiple instances never collide.
// A nil *Metrics is a valid no-op recorder.
type Metrics struct {
	registry  *prometheus.Registry
	processed *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	claimed   prometheus.Counter
	requeued  prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		processed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "publish_jobs_processed_total",
			Help: "Publish jobs processed by the worker, by platform and outcome.",
		}, []string{"platform", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "publish_job_duration_seconds",
			Help:    "Time spent publishing one job.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"platform"}),
		claimed: factory.NewCounter(prometheus.CounterOpts{
			Name: "publish_jobs_claimed_total",
			Help: "Publish jobs claimed from the queue.",
		}),
		requeued: factory.NewCounter(prometheus.CounterOpts{
			Name: "publish_jobs_requeued_total",
			Help: "Stale PROCESSING jobs returned to PENDING.",
		}),
	}
}

func (m *Metrics) ObserveProcessed(platform, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.processed.WithLabelValues(platform, outcome).Inc()
	m.duration.WithLabelValues(platform).Observe(d.Seconds())
}

func (m *Metrics) AddClaimed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.claimed.Add(float64(n))
}

func (m *Metrics) AddRequeued(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.requeued.Add(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
