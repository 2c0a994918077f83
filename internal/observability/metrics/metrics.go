package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking funnel.
type BookingMetrics struct {
	wizardOpens      *prometheus.CounterVec
	stepTotal        *prometheus.CounterVec
	submissionsTotal *prometheus.CounterVec
	submitLatency    prometheus.Histogram
	catalogLoads     *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		wizardOpens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barbershop",
			Subsystem: "booking",
			Name:      "wizard_opens_total",
			Help:      "Total booking wizard sessions opened",
		}, []string{"preselected"}),
		stepTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barbershop",
			Subsystem: "booking",
			Name:      "wizard_steps_total",
			Help:      "Total wizard step transitions",
		}, []string{"step", "direction"}),
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barbershop",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Total booking submissions by outcome",
		}, []string{"outcome"}),
		submitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "barbershop",
			Subsystem: "booking",
			Name:      "submit_latency_seconds",
			Help:      "Latency of booking submission transactions",
			Buckets:   prometheus.DefBuckets,
		}),
		catalogLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barbershop",
			Subsystem: "booking",
			Name:      "catalog_loads_total",
			Help:      "Total catalog loads by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.wizardOpens, m.stepTotal, m.submissionsTotal, m.submitLatency, m.catalogLoads)
	return m
}

func (m *BookingMetrics) ObserveWizardOpen(preselected bool) {
	if m == nil {
		return
	}
	label := "false"
	if preselected {
		label = "true"
	}
	m.wizardOpens.WithLabelValues(label).Inc()
}

func (m *BookingMetrics) ObserveStep(step string, forward bool) {
	if m == nil {
		return
	}
	direction := "forward"
	if !forward {
		direction = "back"
	}
	m.stepTotal.WithLabelValues(step, direction).Inc()
}

func (m *BookingMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveSubmitLatency(seconds float64) {
	if m == nil {
		return
	}
	m.submitLatency.Observe(seconds)
}

func (m *BookingMetrics) ObserveCatalogLoad(result string) {
	if m == nil {
		return
	}
	m.catalogLoads.WithLabelValues(result).Inc()
}
