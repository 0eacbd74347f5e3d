// Package metrics exposes the Prometheus collectors of the API server and
// the worker.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector.  A nil *Metrics is valid and records
// nothing, so tests and tools can skip instrumentation.
type Metrics struct {
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	BookingSubmits   *prometheus.CounterVec
	BookingDecisions *prometheus.CounterVec
	BookingCancels   prometheus.Counter
	EventsPublished  *prometheus.CounterVec
	EventsConsumed   *prometheus.CounterVec
	MailsSent        *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg.  Pass prometheus.DefaultRegisterer
// in production and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "room_booking_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),

		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "room_booking_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		BookingSubmits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "room_booking_submissions_total",
			Help: "Booking submissions by outcome (created, conflict, policy, invalid, error)",
		}, []string{"outcome"}),

		BookingDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "room_booking_decisions_total",
			Help: "Admin decisions by resulting status",
		}, []string{"status"}),

		BookingCancels: f.NewCounter(prometheus.CounterOpts{
			Name: "room_booking_cancellations_total",
			Help: "Bookings cancelled by their owner",
		}),

		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "room_booking_events_published_total",
			Help: "Broker publishes by event and result",
		}, []string{"event", "result"}),

		EventsConsumed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "room_booking_events_consumed_total",
			Help: "Broker deliveries handled by the worker, by result (ack, reject)",
		}, []string{"result"}),

		MailsSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "room_booking_mails_total",
			Help: "Decision emails by result",
		}, []string{"result"}),
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// Handler serves the registry the collectors were registered on.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.  route is the echo route
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) Submit(outcome string) {
	if m != nil {
		m.BookingSubmits.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Decision(status string) {
	if m != nil {
		m.BookingDecisions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) Cancel() {
	if m != nil {
		m.BookingCancels.Inc()
	}
}

func (m *Metrics) Published(event string, err error) {
	if m != nil {
		m.EventsPublished.WithLabelValues(event, result(err)).Inc()
	}
}

func (m *Metrics) Consumed(res string) {
	if m != nil {
		m.EventsConsumed.WithLabelValues(res).Inc()
	}
}

func (m *Metrics) Mail(err error) {
	if m != nil {
		m.MailsSent.WithLabelValues(result(err)).Inc()
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
