package statechart

import (
	"fmt"
	"log/slog"

	"github.com/amp-labs/amp-hsm/queue"
	"github.com/google/uuid"
)

// RunInvalid is returned by Run on a nil engine.
const RunInvalid = -1

// Engine runs one instance of a Chart.
type Engine struct {
	id    uuid.UUID
	chart *Chart
	queue Queue

	current StateID
	data    any

	registries    bounded[[]Actor]
	maxRegistries int

	// Timed events, indexed by state id.
	period []uint32
	count  []uint32

	// Scratch space for the entry path, sized to the chart's max depth.
	path []StateID

	terminated     bool
	terminateValue int

	runOnTick bool
	observer  Observer
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithQueue injects the event queue. The default is an unsynchronized ring
// of DefaultQueueCapacity, suitable when Dispatch and Run share a goroutine.
func WithQueue(q Queue) Option {
	return func(e *Engine) {
		e.queue = q
	}
}

// WithRunOnTick makes TickHook call Run synchronously after injecting a
// timeout. Only use it when the tick source is the consumer itself.
func WithRunOnTick() Option {
	return func(e *Engine) {
		e.runOnTick = true
	}
}

// WithObserver sets the notification sink.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithMaxRegistries overrides DefaultMaxRegistries.
func WithMaxRegistries(n int) Option {
	return func(e *Engine) {
		e.maxRegistries = n
	}
}

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine for chart and enters initial (and its default
// substate chain) with data as the user data.
func New(chart *Chart, initial StateID, data any, opts ...Option) (*Engine, error) {
	if chart == nil {
		return nil, fmt.Errorf("%w: chart is nil", ErrInvalidArgument)
	}

	e := &Engine{
		id:            uuid.New(),
		chart:         chart,
		maxRegistries: DefaultMaxRegistries,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.maxRegistries < 1 {
		return nil, fmt.Errorf("%w: max registries must be positive", ErrInvalidArgument)
	}

	if e.queue == nil {
		e.queue = queue.NewRing[Event](DefaultQueueCapacity)
	}

	if e.observer == nil {
		e.observer = NopObserver{}
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	e.registries = newBounded[[]Actor](e.maxRegistries)
	e.period = make([]uint32, len(chart.states))
	e.count = make([]uint32, len(chart.states))
	e.path = make([]StateID, 0, chart.maxDepth)

	for _, id := range chart.order {
		e.period[id] = chart.states[id].period
	}

	if err := e.Reset(initial, data); err != nil {
		return nil, err
	}

	return e, nil
}

// Reset re-initializes the engine: it clears termination, the queue and all
// linked actors, rearms every countdown, and enters initial again. Timed-event
// periods set with SetTimedEvent are kept.
func (e *Engine) Reset(initial StateID, data any) error {
	if e == nil || e.chart == nil {
		return fmt.Errorf("%w: engine is nil", ErrInvalidArgument)
	}

	if initial == StateNone || !e.chart.Has(initial) {
		return fmt.Errorf("%w: initial state %d", ErrInvalidArgument, initial)
	}

	if len(e.chart.transitions) == 0 {
		return fmt.Errorf("%w: chart %q has no transitions", ErrInvalidConfiguration, e.chart.name)
	}

	e.terminated = false
	e.terminateValue = 0
	e.data = data
	e.registries.reset()
	e.queue.Flush()
	copy(e.count, e.period)

	e.current = StateNone
	e.enter(e.chart.Parent(initial), e.chart.Resolve(initial), data)

	e.logger.Debug("statechart engine initialized",
		"engine_id", e.id.String(),
		"chart", e.chart.name,
		"fingerprint", e.chart.fingerprint,
		"state", e.chart.StateName(e.current),
	)

	return nil
}

// ID identifies this engine instance.
func (e *Engine) ID() uuid.UUID {
	return e.id
}

// Chart returns the chart the engine runs.
func (e *Engine) Chart() *Chart {
	return e.chart
}

// State returns the current leaf state, or StateNone for a nil engine.
func (e *Engine) State() StateID {
	if e == nil {
		return StateNone
	}

	return e.current
}

// IsIn reports whether id is the current state or one of its ancestors.
func (e *Engine) IsIn(id StateID) bool {
	if e == nil || e.chart == nil {
		return false
	}

	return id != StateNone && e.chart.IsAncestor(id, e.current)
}

// Data returns the user data.
func (e *Engine) Data() any {
	return e.data
}

// SetData replaces the user data passed to run actions and timeout events.
func (e *Engine) SetData(data any) {
	e.data = data
}

// Dispatch enqueues an event at the tail of the queue. If the queue is full
// the event is dropped; the observer is told but the caller is not.
func (e *Engine) Dispatch(ev EventID, data any) {
	if e == nil || e.chart == nil || len(e.chart.transitions) == 0 {
		return
	}

	event := Event{ID: ev, Data: data}
	if !e.queue.PushBack(event) {
		e.observer.Dropped(e, event)
	}
}

// Run drains the queue, firing at most one transition per event, then runs
// the current state once: its run action followed by the run hooks of actors
// attached to it. It returns 0, or the terminate value once Terminate has
// been called, in which case it does nothing further.
func (e *Engine) Run() int {
	if e == nil || e.chart == nil {
		return RunInvalid
	}

	if e.terminated {
		return e.terminateValue
	}

	for {
		ev, ok := e.queue.Pop()
		if !ok {
			break
		}

		e.process(ev)

		if e.terminated {
			return e.terminateValue
		}
	}

	invoke(e.chart.states[e.current].hooks.Run, e, e.data)
	e.fireActors(e.current, phaseRun, e.data)

	return 0
}

// Terminate stops the engine. It is meant to be called from an action; the
// transition in progress completes, then Run returns value and keeps
// returning it until Reset.
func (e *Engine) Terminate(value int) {
	if e == nil {
		return
	}

	e.terminated = true
	e.terminateValue = value

	e.observer.Terminated(e, value)
}

// Terminated reports whether Terminate has been called since the last reset.
func (e *Engine) Terminated() bool {
	return e != nil && e.terminated
}

// HasPendingEvents reports whether the queue is non-empty.
func (e *Engine) HasPendingEvents() bool {
	return e.PendingEvents() > 0
}

// PendingEvents returns the number of queued events.
func (e *Engine) PendingEvents() int {
	if e == nil || e.queue == nil {
		return 0
	}

	return e.queue.Len()
}

// FlushEvents discards queued events without processing them.
func (e *Engine) FlushEvents() {
	if e == nil || e.queue == nil {
		return
	}

	e.queue.Flush()
}
