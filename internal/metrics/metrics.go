package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ecorder"

// Outcome labels
const (
	OutcomeOK       = "ok"
	OutcomeBusiness = "business_error"
	OutcomeError    = "error"
)

// Metrics holds the engine's collectors
type Metrics struct {
	UseCaseRequests     *prometheus.CounterVec
	UseCaseDuration     *prometheus.HistogramVec
	StockReservations   *prometheus.CounterVec
	NotificationsFailed *prometheus.CounterVec
	HTTPRequests        *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// A nil reg creates unregistered collectors, which is what tests use.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		UseCaseRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usecase_requests_total",
			Help:      "Use case invocations by outcome.",
		}, []string{"use_case", "outcome"}),
		UseCaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "usecase_duration_seconds",
			Help:      "Use case latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"use_case"}),
		StockReservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_reservations_total",
			Help:      "Stock reservation attempts by outcome.",
		}, []string{"outcome"}),
		NotificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Notifications that could not be published.",
		}, []string{"event"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"route", "status"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.UseCaseRequests,
			m.UseCaseDuration,
			m.StockReservations,
			m.NotificationsFailed,
			m.HTTPRequests,
		)
	}
	return m
}

// ObserveUseCase records one use case invocation
func (m *Metrics) ObserveUseCase(useCase, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.UseCaseRequests.WithLabelValues(useCase, outcome).Inc()
	m.UseCaseDuration.WithLabelValues(useCase).Observe(time.Since(started).Seconds())
}

// Reservation counts one reservation attempt
func (m *Metrics) Reservation(outcome string) {
	if m == nil {
		return
	}
	m.StockReservations.WithLabelValues(outcome).Inc()
}

// NotificationFailed counts one failed notification publish
func (m *Metrics) NotificationFailed(event string) {
	if m == nil {
		return
	}
	m.NotificationsFailed.WithLabelValues(event).Inc()
}

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
