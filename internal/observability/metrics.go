package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors for the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
	httpErrors    *prometheus.CounterVec
	created       *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	pricing       *prometheus.CounterVec
	notifications *prometheus.CounterVec
	documents     *prometheus.CounterVec
}

// NewMetrics registers collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		httpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution for HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		httpErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "http",
			Name:      "errors_total",
			Help:      "Total number of HTTP requests that ended in a domain error.",
		}, []string{"route", "method", "code"}),
		created: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "service_requests",
			Name:      "created_total",
			Help:      "Total number of service requests submitted.",
		}, []string{"service_type"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "service_requests",
			Name:      "transitions_total",
			Help:      "Total number of applied status transitions.",
		}, []string{"service_type", "to"}),
		pricing: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pricing",
			Name:      "resolutions_total",
			Help:      "Total number of pricing resolutions by source.",
		}, []string{"source"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notifications",
			Name:      "deliveries_total",
			Help:      "Total number of notification delivery attempts.",
		}, []string{"kind", "result"}),
		documents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "documents",
			Name:      "attached_total",
			Help:      "Total number of documents attached by storage backend.",
		}, []string{"backend"}),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.httpErrors.WithLabelValues(route, method, code).Inc()
}

// RequestCreated counts a submitted request.
func (m *Metrics) RequestCreated(serviceType string) {
	if m == nil {
		return
	}
	m.created.WithLabelValues(serviceType).Inc()
}

// StatusTransitioned counts an applied transition.
func (m *Metrics) StatusTransitioned(serviceType, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(serviceType, to).Inc()
}

// PricingResolved counts a pricing resolution by source.
func (m *Metrics) PricingResolved(source string) {
	if m == nil {
		return
	}
	m.pricing.WithLabelValues(source).Inc()
}

// NotificationDelivered counts a delivery attempt; result is "ok", "failed" or "dropped".
func (m *Metrics) NotificationDelivered(kind, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind, result).Inc()
}

// DocumentAttached counts an attachment by backend.
func (m *Metrics) DocumentAttached(backend string) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(backend).Inc()
}
