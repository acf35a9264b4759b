package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBackendMetricsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBackendMetrics(reg)

	m.IncRequest("fetch_products", "success")
	m.IncRequest("fetch_products", "success")
	m.IncRequest("", "error")

	if got := testutil.ToFloat64(m.requests.WithLabelValues("fetch_products", "success")); got != 2 {
		t.Fatalf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("unknown", "error")); got != 1 {
		t.Fatalf("expected empty operation to be normalized, got %v", got)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	m := NewBackendMetrics(nil)
	m.IncRequest("fetch_products", "success")

	c := NewCheckoutMetrics(nil)
	c.IncSubmission("success")

	var nilBackend *BackendMetrics
	nilBackend.IncRequest("x", "y")
}
