// Package metrics holds the Prometheus collectors shared by the API
// server and the worker.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Enqueue results.
const (
	EnqueueOK     = "ok"
	EnqueueFull   = "full"
	EnqueueClosed = "closed"
	EnqueueFailed = "failed"
)

// Worker outcomes.
const (
	JobAcked   = "acked"
	JobDropped = "dropped"
	JobRetried = "retried"
)

// Metrics bundles the collectors registered on one registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	RequestCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	JobsEnqueued    *prometheus.CounterVec
	WorkerJobs      *prometheus.CounterVec
}

// New creates a registry with the process and Go collectors plus the
// service collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	m, err := NewWithRegistry(reg)
	if err != nil {
		panic(err)
	}
	return m
}

// NewWithRegistry registers the service collectors on reg.
func NewWithRegistry(reg *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		reg: reg,
		RequestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		JobsEnqueued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "file_jobs_enqueued_total",
				Help: "Post-processing jobs handed to the broker, by result.",
			},
			[]string{"queue", "result"},
		),
		WorkerJobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "worker_jobs_total",
				Help: "Jobs processed by the worker, by outcome.",
			},
			[]string{"queue", "outcome"},
		),
	}
	for _, c := range []prometheus.Collector{m.RequestCount, m.RequestDuration, m.JobsEnqueued, m.WorkerJobs} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestCount.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(seconds)
}

// ObserveEnqueue records the outcome of one enqueue attempt.
func (m *Metrics) ObserveEnqueue(queue, result string) {
	if m == nil {
		return
	}
	m.JobsEnqueued.WithLabelValues(queue, result).Inc()
}

// ObserveJob records how the worker settled one delivery.
func (m *Metrics) ObserveJob(queue, outcome string) {
	if m == nil {
		return
	}
	m.WorkerJobs.WithLabelValues(queue, outcome).Inc()
}
