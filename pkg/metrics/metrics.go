package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BackendMetrics counts outbound requests to the storefront backend.
type BackendMetrics struct {
	requests *prometheus.CounterVec
}

// NewBackendMetrics registers the backend request metrics on the provided registerer.
func NewBackendMetrics(reg prometheus.Registerer) *BackendMetrics {
	if reg == nil {
		return &BackendMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backend_requests_total",
		Help: "Backend requests by operation and outcome.",
	}, []string{"operation", "outcome"})
	reg.MustRegister(requests)
	return &BackendMetrics{requests: requests}
}

// IncRequest records one backend call for the named operation.
func (m *BackendMetrics) IncRequest(operation, outcome string) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// CheckoutMetrics counts order submissions by result.
type CheckoutMetrics struct {
	submissions *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_total",
		Help: "Checkout submissions by result.",
	}, []string{"result"})
	reg.MustRegister(submissions)
	return &CheckoutMetrics{submissions: submissions}
}

// IncSubmission records one checkout attempt.
func (m *CheckoutMetrics) IncSubmission(result string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
