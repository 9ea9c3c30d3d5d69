package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "costdesk"

// Metrics holds the prometheus collectors exported by the service.
type Metrics struct {
	registry     *prometheus.Registry
	events       *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	invalidItems prometheus.Counter
	quotedAmount prometheus.Histogram
}

// NewMetrics registers the collectors on a dedicated registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "domain_events_total",
			Help:      "Domain events published, by type.",
		}, []string{"type"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route pattern and status class.",
		}, []string{"route", "status"}),
		invalidItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "quote_invalid_items_total",
			Help:      "Line items rejected while computing breakdowns.",
		}),
		quotedAmount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "quote_total_cost",
			Help:      "Total cost of computed breakdowns.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}

	reg.MustRegister(m.events, m.httpRequests, m.invalidItems, m.quotedAmount)

	return m
}

// ObserveEvent counts a published domain event.
func (m *Metrics) ObserveEvent(eventType string) {
	m.events.WithLabelValues(eventType).Inc()
}

// ObserveRequest counts a served HTTP request.
func (m *Metrics) ObserveRequest(route, statusClass string) {
	m.httpRequests.WithLabelValues(route, statusClass).Inc()
}

// ObserveBreakdown records one computed breakdown.
func (m *Metrics) ObserveBreakdown(totalCost float64, invalidItems int) {
	m.quotedAmount.Observe(totalCost)
	m.invalidItems.Add(float64(invalidItems))
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
