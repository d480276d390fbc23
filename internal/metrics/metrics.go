package metrics

import "github.com/prometheus/client_golang/prometheus"

// Booking exposes counters for the booking lifecycle.
type Booking struct {
	bookingsTotal     *prometheus.CounterVec
	statusChangeTotal *prometheus.CounterVec
	editTotal         *prometheus.CounterVec
}

func NewBooking(reg prometheus.Registerer) *Booking {
	m := &Booking{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barber",
			Subsystem: "booking",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		statusChangeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barber",
			Subsystem: "booking",
			Name:      "status_changes_total",
			Help:      "Confirm/cancel actions by target status and outcome",
		}, []string{"status", "outcome"}),
		editTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "barber",
			Subsystem: "booking",
			Name:      "edits_total",
			Help:      "Edit actions by outcome",
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.statusChangeTotal, m.editTotal)
	return m
}

func (m *Booking) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *Booking) ObserveStatusChange(status, outcome string) {
	if m == nil {
		return
	}
	m.statusChangeTotal.WithLabelValues(status, outcome).Inc()
}

func (m *Booking) ObserveEdit(outcome string) {
	if m == nil {
		return
	}
	m.editTotal.WithLabelValues(outcome).Inc()
}
