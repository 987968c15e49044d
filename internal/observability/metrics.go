package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry           *prometheus.Registry
	requests           *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	errors             *prometheus.CounterVec
	transitions        *prometheus.CounterVec
	escalations        *prometheus.CounterVec
	events             *prometheus.CounterVec
	suggestionFailures prometheus.Counter
}

// NewMetrics registers collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		requestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "helpdesk_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_http_errors_total",
			Help: "Error responses by route, method and error code",
		}, []string{"route", "method", "code"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_ticket_transitions_total",
			Help: "Ticket status transitions",
		}, []string{"from", "to"}),
		escalations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_ticket_escalations_total",
			Help: "Ticket escalations by escalating role",
		}, []string{"role"}),
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_events_published_total",
			Help: "Domain events dispatched by type",
		}, []string{"type"}),
		suggestionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "helpdesk_suggestion_failures_total",
			Help: "Suggestion calls that degraded to an empty result",
		}),
	}
}

// RecordRequest counts a served request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError counts an error response.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordTransition counts a status change.
func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

// RecordEscalation counts an escalation by the actor's role.
func (m *Metrics) RecordEscalation(role string) {
	if m == nil {
		return
	}
	m.escalations.WithLabelValues(role).Inc()
}

// RecordEvent counts a dispatched domain event.
func (m *Metrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(eventType).Inc()
}

// RecordSuggestionFailure counts a degraded suggestion call.
func (m *Metrics) RecordSuggestionFailure() {
	if m == nil {
		return
	}
	m.suggestionFailures.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
