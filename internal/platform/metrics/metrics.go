// Package metrics exposes Prometheus collectors for the clinic server.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinic/clinic/internal/platform/auth"
)

// Metrics holds the server's collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
	bookings      *prometheus.CounterVec
	cancellations prometheus.Counter
	authDecisions *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "booking_attempts_total",
			Help:      "Booking attempts by validator outcome.",
		}, []string{"result"}),
		cancellations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "cancellations_total",
			Help:      "Appointments cancelled by their owners.",
		}),
		authDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "auth",
			Name:      "decisions_total",
			Help:      "Authorization gate decisions by accepted roles.",
		}, []string{"roles", "decision"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.httpRequests, m.httpLatency, m.bookings, m.cancellations, m.authDecisions)
	return m
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordBooking counts a booking attempt; result is "ok", "slot_taken",
// "invalid_doctor" or "error".
func (m *Metrics) RecordBooking(result string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordCancellation() {
	if m == nil {
		return
	}
	m.cancellations.Inc()
}

// RecordAuthDecision implements auth.DecisionRecorder.
func (m *Metrics) RecordAuthDecision(roles []auth.Role, d auth.Decision) {
	if m == nil {
		return
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	m.authDecisions.WithLabelValues(strings.Join(names, "|"), d.String()).Inc()
}

// Handler serves the collectors registered with g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
