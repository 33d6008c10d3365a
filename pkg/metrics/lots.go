package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LotMetrics records counters for order admission and notification fan-out.
type LotMetrics struct {
	admissions    *prometheus.CounterVec
	completions   prometheus.Counter
	notifications *prometheus.CounterVec
	events        *prometheus.CounterVec
}

// NewLotMetrics registers the lot metrics on the provided registerer.
func NewLotMetrics(reg prometheus.Registerer) *LotMetrics {
	if reg == nil {
		return &LotMetrics{}
	}
	admissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lot_order_admissions",
		Help: "Order admission attempts by outcome.",
	}, []string{"outcome"})
	completions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lot_completions",
		Help: "Lots flipped to completed after reaching their target.",
	})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lot_notifications",
		Help: "Per-participant notification writes by result.",
	}, []string{"result"})
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lot_events_consumed",
		Help: "Lot lifecycle events consumed from the event stream.",
	}, []string{"event_type"})
	reg.MustRegister(admissions, completions, notifications, events)
	return &LotMetrics{
		admissions:    admissions,
		completions:   completions,
		notifications: notifications,
		events:        events,
	}
}

// IncAdmission increments the admission counter for the given outcome.
func (m *LotMetrics) IncAdmission(outcome string) {
	if m == nil || m.admissions == nil {
		return
	}
	m.admissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncCompletion increments the lot completion counter.
func (m *LotMetrics) IncCompletion() {
	if m == nil || m.completions == nil {
		return
	}
	m.completions.Inc()
}

// IncNotification increments the notification counter for the given result.
func (m *LotMetrics) IncNotification(result string) {
	if m == nil || m.notifications == nil {
		return
	}
	m.notifications.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncEventConsumed increments the consumed-event counter for the given type.
func (m *LotMetrics) IncEventConsumed(eventType string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(eventType)).Inc()
}
