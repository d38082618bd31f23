package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking conversation flow.
type BookingMetrics struct {
	inboundTotal    *prometheus.CounterVec
	transitionTotal *prometheus.CounterVec
	handoffTotal    *prometheus.CounterVec
	bookingTotal    *prometheus.CounterVec
	stepLatency     prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intellisend",
			Subsystem: "booking",
			Name:      "inbound_total",
			Help:      "Total inbound messages processed by the booking agent",
		}, []string{"intent"}),
		transitionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intellisend",
			Subsystem: "booking",
			Name:      "transition_total",
			Help:      "Total session state transitions",
		}, []string{"from", "to"}),
		handoffTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intellisend",
			Subsystem: "booking",
			Name:      "handoff_total",
			Help:      "Total conversations escalated to a human",
		}, []string{"reason"}),
		bookingTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intellisend",
			Subsystem: "booking",
			Name:      "jobs_booked_total",
			Help:      "Total CRM jobs booked by the agent",
		}, []string{"outcome"}),
		stepLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "intellisend",
			Subsystem: "booking",
			Name:      "step_latency_seconds",
			Help:      "Latency of a single inbound message processing step",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.transitionTotal, m.handoffTotal, m.bookingTotal, m.stepLatency)
	return m
}

func (m *BookingMetrics) ObserveInbound(intent string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(intent).Inc()
}

func (m *BookingMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitionTotal.WithLabelValues(from, to).Inc()
}

func (m *BookingMetrics) ObserveHandoff(reason string) {
	if m == nil {
		return
	}
	m.handoffTotal.WithLabelValues(reason).Inc()
}

func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveStepLatency(seconds float64) {
	if m == nil {
		return
	}
	m.stepLatency.Observe(seconds)
}
