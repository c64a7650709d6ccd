// Package metrics exposes Prometheus collectors for the queue, the ledger
// and the event bus. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "frontdesk"

type Metrics struct {
	registry *prometheus.Registry

	visitsCreated   *prometheus.CounterVec
	queueCalls      *prometheus.CounterVec
	visitTransition *prometheus.CounterVec
	invoiceOps      *prometheus.CounterVec
	paymentsAmount  *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
	eventsDropped   *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		visitsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visits_created_total",
			Help:      "Visits created, by emergency flag.",
		}, []string{"emergency"}),
		queueCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_calls_total",
			Help:      "Call-next attempts, by outcome.",
		}, []string{"result"}),
		visitTransition: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visit_transitions_total",
			Help:      "Visit status transitions, by target status.",
		}, []string{"status"}),
		invoiceOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_operations_total",
			Help:      "Ledger operations, by operation and outcome.",
		}, []string{"operation", "result"}),
		paymentsAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_amount_total",
			Help:      "Sum of recorded payments, by method.",
		}, []string{"method"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Events handed to the broker, by event name.",
		}, []string{"event"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Events lost to full buffers or broker errors, by event name.",
		}, []string{"event"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route template and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.visitsCreated,
		m.queueCalls,
		m.visitTransition,
		m.invoiceOps,
		m.paymentsAmount,
		m.eventsPublished,
		m.eventsDropped,
		m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) VisitCreated(emergency bool) {
	if m == nil {
		return
	}
	m.visitsCreated.WithLabelValues(strconv.FormatBool(emergency)).Inc()
}

func (m *Metrics) QueueCall(result string) {
	if m == nil {
		return
	}
	m.queueCalls.WithLabelValues(result).Inc()
}

func (m *Metrics) VisitTransition(status string) {
	if m == nil {
		return
	}
	m.visitTransition.WithLabelValues(status).Inc()
}

func (m *Metrics) InvoiceOperation(operation, result string) {
	if m == nil {
		return
	}
	m.invoiceOps.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) PaymentRecorded(method string, amount float64) {
	if m == nil {
		return
	}
	m.paymentsAmount.WithLabelValues(method).Add(amount)
}

func (m *Metrics) EventPublished(event string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(event).Inc()
}

func (m *Metrics) EventDropped(event string) {
	if m == nil {
		return
	}
	m.eventsDropped.WithLabelValues(event).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
