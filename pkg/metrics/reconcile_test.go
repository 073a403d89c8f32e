package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestReconcileMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewReconcileMetrics(reg)

	metrics.IncConfirmation("confirmed")
	metrics.IncConfirmation("confirmed")
	metrics.IncRefund("partial")
	metrics.IncAmountMismatch()
	metrics.IncGatewayFailure("cancel")
	metrics.ObserveGatewayDuration("cancel", 120*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "payment_confirmations_total", "outcome", "confirmed"); err != nil {
		t.Fatalf("fetch confirmations: %v", err)
	} else if got != 2 {
		t.Fatalf("expected confirmations=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "payment_refunds_total", "kind", "partial"); err != nil {
		t.Fatalf("fetch refunds: %v", err)
	} else if got != 1 {
		t.Fatalf("expected refunds=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "gateway_failures_total", "operation", "cancel"); err != nil {
		t.Fatalf("fetch gateway failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected gateway failures=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "gateway_request_duration_seconds", "operation", "cancel"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestReconcileMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewReconcileMetrics(nil)
	metrics.IncConfirmation("confirmed")
	metrics.IncRefund("full")
	metrics.IncAmountMismatch()
	metrics.IncGatewayFailure("cancel")
	metrics.ObserveGatewayDuration("cancel", time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
