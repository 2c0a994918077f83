package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBookingMetricsObserve(t *testing.T) {
	m := NewBookingMetrics(prometheus.NewRegistry())
	m.ObserveWizardOpen(true)
	m.ObserveStep("schedule", true)
	m.ObserveStep("service", false)
	m.ObserveSubmission("confirmed")
	m.ObserveSubmitLatency(0.25)
	m.ObserveCatalogLoad("hit")
}

func TestBookingMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveSubmission("failed_customer_lookup")
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveWizardOpen(false)
	m.ObserveStep("contact", true)
	m.ObserveSubmission("confirmed")
	m.ObserveSubmitLatency(0.1)
	m.ObserveCatalogLoad("miss")
}
