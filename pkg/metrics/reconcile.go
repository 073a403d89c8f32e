package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReconcileMetrics records outcomes of payment confirmation and refund flows.
type ReconcileMetrics struct {
	confirmations   *prometheus.CounterVec
	refunds         *prometheus.CounterVec
	amountMismatch  prometheus.Counter
	gatewayFailures *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
}

// NewReconcileMetrics registers the reconciliation metrics on the provided registerer.
func NewReconcileMetrics(reg prometheus.Registerer) *ReconcileMetrics {
	if reg == nil {
		return &ReconcileMetrics{}
	}
	confirmations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_confirmations_total",
		Help: "Payment confirmations by outcome.",
	}, []string{"outcome"})
	refunds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_refunds_total",
		Help: "Refund settlements by kind.",
	}, []string{"kind"})
	amountMismatch := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_amount_mismatch_total",
		Help: "Confirmations whose reported amount differed from the stored charge.",
	})
	gatewayFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_failures_total",
		Help: "Failed gateway calls by operation.",
	}, []string{"operation"})
	gatewayDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_request_duration_seconds",
		Help:    "Duration of gateway calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(confirmations, refunds, amountMismatch, gatewayFailures, gatewayDuration)
	return &ReconcileMetrics{
		confirmations:   confirmations,
		refunds:         refunds,
		amountMismatch:  amountMismatch,
		gatewayFailures: gatewayFailures,
		gatewayDuration: gatewayDuration,
	}
}

// IncConfirmation counts a confirmation attempt by outcome
// (confirmed, already_completed, keys_updated, rejected).
func (m *ReconcileMetrics) IncConfirmation(outcome string) {
	if m == nil || m.confirmations == nil {
		return
	}
	m.confirmations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncRefund counts a settled refund by kind (void, partial, full).
func (m *ReconcileMetrics) IncRefund(kind string) {
	if m == nil || m.refunds == nil {
		return
	}
	m.refunds.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncAmountMismatch counts a confirmation whose reported amount disagreed
// with the stored charge.
func (m *ReconcileMetrics) IncAmountMismatch() {
	if m == nil || m.amountMismatch == nil {
		return
	}
	m.amountMismatch.Inc()
}

// IncGatewayFailure counts a failed gateway call for the named operation.
func (m *ReconcileMetrics) IncGatewayFailure(operation string) {
	if m == nil || m.gatewayFailures == nil {
		return
	}
	m.gatewayFailures.WithLabelValues(normalizeLabel(operation)).Inc()
}

// ObserveGatewayDuration records how long a gateway call took.
func (m *ReconcileMetrics) ObserveGatewayDuration(operation string, duration time.Duration) {
	if m == nil || m.gatewayDuration == nil {
		return
	}
	m.gatewayDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
