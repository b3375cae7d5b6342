// Package runner hosts statechart engines on goroutines. A Task owns one
// engine: it alone calls Run and TickHook, while Dispatch may be called from
// any goroutine through a synchronized queue.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amp-labs/amp-hsm/queue"
	"github.com/amp-labs/amp-hsm/statechart"
	"go.uber.org/atomic"
)

var (
	// ErrTaskRunning is returned when Run is called on a task that is already running.
	ErrTaskRunning = errors.New("task is already running")

	// ErrTaskStopped is returned by Do when Run exits before it picks up fn.
	ErrTaskStopped = errors.New("task stopped")
)

// DefaultTickInterval is the tick period when none is configured.
const DefaultTickInterval = 10 * time.Millisecond

// Task owns an engine and serializes everything that touches it.
type Task struct {
	engine *statechart.Engine
	queue  *queue.Sync[statechart.Event]

	interval  time.Duration
	newTicker TickerFactory
	logger    *slog.Logger

	commands chan func(*statechart.Engine)
	state    atomic.Int64

	// mu guards running and stopped, and is held while Do runs fn on the
	// caller so Run cannot start underneath it.
	mu      sync.Mutex
	running atomic.Bool
	stopped chan struct{}
}

type options struct {
	interval      time.Duration
	newTicker     TickerFactory
	queueCapacity int
	logger        *slog.Logger
	engineOpts    []statechart.Option
}

// Option configures a Task.
type Option func(*options)

// WithTickInterval sets the period between TickHook calls. Zero disables ticking.
func WithTickInterval(d time.Duration) Option {
	return func(o *options) {
		o.interval = d
	}
}

// WithTicker replaces the time-based tick source.
func WithTicker(factory TickerFactory) Option {
	return func(o *options) {
		o.newTicker = factory
	}
}

// WithQueueCapacity sets the capacity of the task's event queue.
func WithQueueCapacity(n int) Option {
	return func(o *options) {
		o.queueCapacity = n
	}
}

// WithLogger sets the logger for the task and its engine.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEngineOptions passes options through to statechart.New. A WithQueue
// option here is overridden by the task's own queue.
func WithEngineOptions(opts ...statechart.Option) Option {
	return func(o *options) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}

// New creates a task and its engine, entering initial.
func New(chart *statechart.Chart, initial statechart.StateID, data any, opts ...Option) (*Task, error) {
	o := options{
		interval:      DefaultTickInterval,
		newTicker:     NewTimeTicker,
		queueCapacity: statechart.DefaultQueueCapacity,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(&o)
	}

	q := queue.NewSync[statechart.Event](o.queueCapacity)

	engineOpts := append([]statechart.Option{statechart.WithLogger(o.logger)}, o.engineOpts...)
	engineOpts = append(engineOpts, statechart.WithQueue(q))

	engine, err := statechart.New(chart, initial, data, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	t := &Task{
		engine:    engine,
		queue:     q,
		interval:  o.interval,
		newTicker: o.newTicker,
		logger:    o.logger,
		commands:  make(chan func(*statechart.Engine)),
	}
	t.state.Store(int64(engine.State()))

	return t, nil
}

// ID returns the engine id.
func (t *Task) ID() string {
	return t.engine.ID().String()
}

// Dispatch queues an event. Safe for concurrent use.
func (t *Task) Dispatch(ev statechart.EventID, data any) {
	t.engine.Dispatch(ev, data)
}

// State returns the current state as of the last completed run pass.
func (t *Task) State() statechart.StateID {
	return statechart.StateID(t.state.Load())
}

// Dropped returns the number of events rejected by the full queue.
func (t *Task) Dropped() uint64 {
	return t.queue.Dropped()
}

// Do runs fn on the goroutine that owns the engine and waits for it. Use it
// for LinkActors, SetTimedEvent or anything else that must not race Run.
// While no Run is active, fn runs on the caller. If Run exits before picking
// fn up, Do returns ErrTaskStopped and fn is not called.
func (t *Task) Do(ctx context.Context, fn func(*statechart.Engine)) error {
	t.mu.Lock()

	if !t.running.Load() {
		defer t.mu.Unlock()

		fn(t.engine)
		t.state.Store(int64(t.engine.State()))

		return nil
	}

	stopped := t.stopped
	t.mu.Unlock()

	done := make(chan struct{})
	wrapped := func(e *statechart.Engine) {
		defer close(done)

		fn(e)
	}

	select {
	case t.commands <- wrapped:
	case <-stopped:
		return ErrTaskStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	// Run calls fn synchronously once received, so done closes before stopped.
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives the engine until it terminates or ctx is done. It returns the
// terminate value, or ctx's error.
func (t *Task) Run(ctx context.Context) (int, error) {
	stopped, err := t.begin()
	if err != nil {
		return 0, err
	}
	defer t.end(stopped)

	var ticks <-chan time.Time

	if t.interval > 0 {
		ticker := t.newTicker(t.interval)
		defer ticker.Stop()

		ticks = ticker.C()
	}

	t.logger.Debug("statechart task started",
		"engine_id", t.ID(),
		"chart", t.engine.Chart().Name(),
		"tick_interval", t.interval.String(),
	)

	// Drain anything dispatched before the loop started.
	if value, done := t.step(); done {
		return value, nil
	}

	for {
		select {
		case <-ctx.Done():
			t.logger.Debug("statechart task stopped", "engine_id", t.ID(), "reason", ctx.Err().Error())

			return 0, ctx.Err()
		case <-t.queue.Ready():
		case <-ticks:
			t.engine.TickHook()
		case fn := <-t.commands:
			fn(t.engine)
		}

		if value, done := t.step(); done {
			t.logger.Debug("statechart task finished", "engine_id", t.ID(), "value", value)

			return value, nil
		}
	}
}

func (t *Task) begin() (chan struct{}, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running.Load() {
		return nil, ErrTaskRunning
	}

	t.stopped = make(chan struct{})
	t.running.Store(true)

	return t.stopped, nil
}

func (t *Task) end(stopped chan struct{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.running.Store(false)
	close(stopped)
}

func (t *Task) step() (int, bool) {
	value := t.engine.Run()
	t.state.Store(int64(t.engine.State()))

	return value, t.engine.Terminated()
}
