package statechart

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric definitions with appropriate labels.
var (
	// transitionsTotal tracks fired transitions.
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statechart_transitions_total",
		Help: "Total number of transitions by chart, from_state, to_state and event",
	}, []string{"chart", "from_state", "to_state", "event"})

	// eventsDroppedTotal tracks events rejected by a full queue.
	eventsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statechart_events_dropped_total",
		Help: "Total number of events dropped because the event queue was full",
	}, []string{"chart", "event"})

	// eventsUnhandledTotal tracks events no active state had a transition for.
	eventsUnhandledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statechart_events_unhandled_total",
		Help: "Total number of events discarded without a matching transition",
	}, []string{"chart", "state", "event"})

	// timeoutsTotal tracks timed events injected by the tick hook.
	timeoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statechart_timeouts_total",
		Help: "Total number of timed events injected by state",
	}, []string{"chart", "state"})

	// terminationsTotal tracks engine terminations.
	terminationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statechart_terminations_total",
		Help: "Total number of engine terminations by chart and terminate value",
	}, []string{"chart", "value"})
)

// MetricsObserver records engine notifications as Prometheus counters.
type MetricsObserver struct{}

func sanitizeChart(name string) string {
	if name == "" {
		return "unknown"
	}

	return name
}

func (MetricsObserver) Transitioned(e *Engine, from, to StateID, ev EventID) {
	c := e.Chart()

	transitionsTotal.WithLabelValues(
		sanitizeChart(c.Name()),
		c.StateName(from),
		c.StateName(to),
		c.EventName(ev),
	).Inc()
}

func (MetricsObserver) Unhandled(e *Engine, ev Event) {
	c := e.Chart()

	eventsUnhandledTotal.WithLabelValues(sanitizeChart(c.Name()), c.StateName(e.State()), c.EventName(ev.ID)).Inc()
}

func (MetricsObserver) Dropped(e *Engine, ev Event) {
	c := e.Chart()

	eventsDroppedTotal.WithLabelValues(sanitizeChart(c.Name()), c.EventName(ev.ID)).Inc()
}

func (MetricsObserver) TimeoutInjected(e *Engine, state StateID) {
	c := e.Chart()

	timeoutsTotal.WithLabelValues(sanitizeChart(c.Name()), c.StateName(state)).Inc()
}

func (MetricsObserver) Terminated(e *Engine, value int) {
	terminationsTotal.WithLabelValues(sanitizeChart(e.Chart().Name()), strconv.Itoa(value)).Inc()
}
