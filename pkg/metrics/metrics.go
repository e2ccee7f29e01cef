// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// GenerationDuration tracks email generation duration.
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "email_generation_duration_seconds",
			Help:    "Email generation duration",
			Buckets: []float64{.1, .5, 1, 2, 3, 5, 10, 20, 30, 60},
		},
		[]string{"generator", "status"},
	)

	// GenerationsTotal tracks generation calls by outcome.
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_generations_total",
			Help: "Total email generation calls",
		},
		[]string{"generator", "status"},
	)

	// GenerationTokensTotal tracks tokens reported by generators.
	GenerationTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_generation_tokens_total",
			Help: "Total tokens reported by email generation",
		},
		[]string{"generator"},
	)

	// TemplateSearchesTotal tracks template searches by backend and outcome.
	TemplateSearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "template_searches_total",
			Help: "Total template searches",
		},
		[]string{"backend", "status"},
	)

	// TemplatesCreatedTotal tracks templates authored through the API.
	TemplatesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "templates_created_total",
			Help: "Total templates created",
		},
	)

	// EventsPublishedTotal tracks audit events sent to the message bus.
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_events_published_total",
			Help: "Audit events published",
		},
		[]string{"type", "status"},
	)

	// SSEConnectionsActive tracks open event feed connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordGeneration records metrics for one generation call.
func RecordGeneration(generator, status string, duration float64, tokens int) {
	GenerationDuration.WithLabelValues(generator, status).Observe(duration)
	GenerationsTotal.WithLabelValues(generator, status).Inc()
	if tokens > 0 {
		GenerationTokensTotal.WithLabelValues(generator).Add(float64(tokens))
	}
}

// RecordSearch records a template search.
func RecordSearch(backend, status string) {
	TemplateSearchesTotal.WithLabelValues(backend, status).Inc()
}

// RecordEventPublished records the outcome of publishing an audit event.
func RecordEventPublished(eventType, status string) {
	EventsPublishedTotal.WithLabelValues(eventType, status).Inc()
}

// IncrementSSEConnections increments the active SSE connections gauge.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connections gauge.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
