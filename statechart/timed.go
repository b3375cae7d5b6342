package statechart

import "fmt"

// SetTimedEvent sets a state's timed-event period in ticks and rearms its
// countdown. Zero disables it. The countdown only runs while the state is
// the current leaf and is rearmed whenever the state is exited.
func (e *Engine) SetTimedEvent(state StateID, period uint32) error {
	if e == nil || e.chart == nil || !e.chart.Has(state) {
		return fmt.Errorf("%w: state %d", ErrInvalidArgument, state)
	}

	e.period[state] = period
	e.count[state] = period

	return nil
}

// Countdown returns the ticks left before the state's timeout fires.
func (e *Engine) Countdown(state StateID) uint32 {
	if e == nil || e.chart == nil || !e.chart.Has(state) {
		return 0
	}

	return e.count[state]
}

// TickHook advances the current state's countdown by one tick. When it
// reaches zero an EventTimeout carrying the user data is pushed to the head
// of the queue, ahead of anything already pending. Without WithRunOnTick the
// hook never runs actions, so it is safe to call from the tick source as
// long as calls are serialized with Run.
func (e *Engine) TickHook() {
	if e == nil || e.chart == nil {
		return
	}

	s := e.current
	if e.count[s] == 0 {
		return
	}

	e.count[s]--
	if e.count[s] != 0 {
		return
	}

	ev := Event{ID: EventTimeout, Data: e.data}
	if e.queue.PushFront(ev) {
		e.observer.TimeoutInjected(e, s)
	} else {
		e.observer.Dropped(e, ev)
	}

	if e.runOnTick {
		e.Run()
	}
}
