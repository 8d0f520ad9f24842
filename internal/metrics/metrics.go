// Package metrics exposes tracker counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tick kinds.
const (
	KindActual       = "actual"
	KindInterruption = "interruption"
)

// Metrics holds the tracker counters on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Ticks             *prometheus.CounterVec
	Events            *prometheus.CounterVec
	PersistenceErrors prometheus.Counter
	Defects           prometheus.Counter
}

// New registers the tracker counters on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Ticks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "psp",
			Name:      "ticks_total",
			Help:      "Seconds counted against a phase, by kind.",
		}, []string{"phase", "kind"}),
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "psp",
			Name:      "events_total",
			Help:      "Stopwatch transitions by event name.",
		}, []string{"event"}),
		PersistenceErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "psp",
			Name:      "persistence_errors_total",
			Help:      "Failed writes to the ledgers or the event log.",
		}),
		Defects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "psp",
			Name:      "defects_created_total",
			Help:      "Defects recorded since start.",
		}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveTick counts one second for a phase.
func (m *Metrics) ObserveTick(phase string, interruption bool) {
	if m == nil {
		return
	}
	kind := KindActual
	if interruption {
		kind = KindInterruption
	}
	m.Ticks.WithLabelValues(phase, kind).Inc()
}

// ObserveEvent counts a stopwatch transition.
func (m *Metrics) ObserveEvent(name string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(name).Inc()
}

// ObservePersistenceError counts a failed write.
func (m *Metrics) ObservePersistenceError() {
	if m == nil {
		return
	}
	m.PersistenceErrors.Inc()
}

// ObserveDefect counts a created defect.
func (m *Metrics) ObserveDefect() {
	if m == nil {
		return
	}
	m.Defects.Inc()
}
