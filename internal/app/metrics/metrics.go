// Package metrics exposes Prometheus collectors for batch runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "asr"

// Metrics groups the collectors on a private registry. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	items         *prometheus.CounterVec
	transcribe    *prometheus.HistogramVec
	fetchAttempts *prometheus.CounterVec
	cooldown      *prometheus.GaugeVec
	batches       *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Work items committed, by terminal status and provider.",
		}, []string{"status", "provider"}),
		transcribe: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcribe_duration_seconds",
			Help:      "Latency of provider transcription calls.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"provider", "outcome"}),
		fetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "Object fetch attempts, by result.",
		}, []string{"result"}),
		cooldown: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quota_cooldown",
			Help:      "1 while a provider is backed off after repeated quota outcomes.",
		}, []string{"provider"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Batch runs, by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.items,
		m.transcribe,
		m.fetchAttempts,
		m.cooldown,
		m.batches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ItemCommitted counts one committed work item.
func (m *Metrics) ItemCommitted(status, provider string) {
	if m == nil {
		return
	}
	m.items.WithLabelValues(status, provider).Inc()
}

// ObserveTranscribe records the latency of one provider call.
func (m *Metrics) ObserveTranscribe(provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.transcribe.WithLabelValues(provider, outcome).Observe(d.Seconds())
}

// FetchAttempt counts one fetch attempt; result is ok, not_found or a transient code.
func (m *Metrics) FetchAttempt(result string) {
	if m == nil {
		return
	}
	m.fetchAttempts.WithLabelValues(result).Inc()
}

// SetCooldown flags whether a provider is currently backed off.
func (m *Metrics) SetCooldown(provider string, active bool) {
	if m == nil {
		return
	}
	v := 0.0
	if active {
		v = 1
	}
	m.cooldown.WithLabelValues(provider).Set(v)
}

// BatchFinished counts a batch run; result is ok, partial, cancelled or error.
func (m *Metrics) BatchFinished(result string) {
	if m == nil {
		return
	}
	m.batches.WithLabelValues(result).Inc()
}
