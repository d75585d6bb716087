// Package telemetry provides logging and metrics for the chat server.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lingochat"

var durationBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// Metrics collects Prometheus metrics on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	responsesTotal   *prometheus.CounterVec // language, status
	responseDuration *prometheus.HistogramVec
	tokensTotal      *prometheus.CounterVec // type
	clearsTotal      prometheus.Counter
}

// NewMetrics creates a new Metrics collector with Go and process collectors
// registered alongside the chat metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		responsesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_total",
			Help:      "Chat responses by resolved language and outcome.",
		}, []string{"language", "status"}),
		responseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "response_duration_seconds",
			Help:      "Completion provider latency.",
			Buckets:   durationBuckets,
		}, []string{"provider"}),
		tokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Tokens consumed by the completion provider.",
		}, []string{"type"}),
		clearsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_clears_total",
			Help:      "Conversation history clear requests.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.responsesTotal,
		m.responseDuration,
		m.tokensTotal,
		m.clearsTotal,
	)
	return m
}

// TrackSessions exports the number of live sessions reported by count.
func (m *Metrics) TrackSessions(count func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions",
		Help:      "Sessions currently holding conversation history.",
	}, func() float64 { return float64(count()) }))
}

// RecordResponse records a completed Respond call.
func (m *Metrics) RecordResponse(provider, language, status string, duration time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	m.responsesTotal.WithLabelValues(language, status).Inc()
	m.responseDuration.WithLabelValues(provider).Observe(duration.Seconds())
	m.tokensTotal.WithLabelValues("input").Add(float64(inputTokens))
	m.tokensTotal.WithLabelValues("output").Add(float64(outputTokens))
}

// RecordClear records a history clear.
func (m *Metrics) RecordClear() {
	if m == nil {
		return
	}
	m.clearsTotal.Inc()
}

// Handler returns an HTTP handler that serves Prometheus-format metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
