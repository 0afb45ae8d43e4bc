// ABOUTME: Prometheus metrics for registrations, clears, and probe outcomes
// ABOUTME: Wired into the registry and probe through their observer hooks

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/prateek/leaksentinel/sentinel"
)

const namespace = "leaksentinel"

// SentinelMetrics holds metrics for the holder slot and probe cycles.
type SentinelMetrics struct {
	// RegistrationsTotal counts registrations by strategy.
	RegistrationsTotal *prometheus.CounterVec

	// ClearsTotal counts Clear calls, split by whether the slot was occupied.
	ClearsTotal *prometheus.CounterVec

	// SlotOccupied is 1 while the slot holds a registration.
	SlotOccupied prometheus.Gauge

	// CyclesTotal counts inspected owners by strategy and outcome
	// ("leaked" or "released").
	CyclesTotal *prometheus.CounterVec

	mu      sync.Mutex
	lastSeq uint64
}

// NewSentinelMetrics creates metrics registered with the default registry.
func NewSentinelMetrics() *SentinelMetrics {
	return NewSentinelMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewSentinelMetricsWithRegistry creates metrics registered with reg.
// Useful for testing to avoid conflicts with the default registry.
func NewSentinelMetricsWithRegistry(reg prometheus.Registerer) *SentinelMetrics {
	m := &SentinelMetrics{
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "holder",
				Name:      "registrations_total",
				Help:      "Owners registered into the holder slot, by reference strategy.",
			},
			[]string{"strategy"},
		),
		ClearsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "holder",
				Name:      "clears_total",
				Help:      "Clear calls on the holder slot, by whether it was occupied.",
			},
			[]string{"occupied"},
		),
		SlotOccupied: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "holder",
				Name:      "slot_occupied",
				Help:      "1 while the holder slot holds a registration, else 0.",
			},
		),
		CyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "probe",
				Name:      "cycles_total",
				Help:      "Destroyed owners inspected by the probe, by strategy and outcome.",
			},
			[]string{"strategy", "outcome"},
		),
	}

	reg.MustRegister(m.RegistrationsTotal, m.ClearsTotal, m.SlotOccupied, m.CyclesTotal)
	return m
}

// OnRegister records a registration.
func (m *SentinelMetrics) OnRegister(strategy string, state sentinel.SlotState) {
	m.RegistrationsTotal.WithLabelValues(strategy).Inc()
	m.setOccupied(state)
}

// OnClear records a Clear call.
func (m *SentinelMetrics) OnClear(hadOccupant bool, state sentinel.SlotState) {
	occupied := "false"
	if hadOccupant {
		occupied = "true"
	}
	m.ClearsTotal.WithLabelValues(occupied).Inc()
	m.setOccupied(state)
}

// setOccupied moves the gauge only forward in slot order; events from
// concurrent callers may arrive after a later one.
func (m *SentinelMetrics) setOccupied(state sentinel.SlotState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state.Seq <= m.lastSeq {
		return
	}
	m.lastSeq = state.Seq
	if state.Occupied {
		m.SlotOccupied.Set(1)
	} else {
		m.SlotOccupied.Set(0)
	}
}

// OnCycle records a probe inspection.
func (m *SentinelMetrics) OnCycle(strategy string, leaked bool) {
	outcome := "released"
	if leaked {
		outcome = "leaked"
	}
	m.CyclesTotal.WithLabelValues(strategy, outcome).Inc()
}
