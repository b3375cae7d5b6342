package statechart

// Observer receives engine notifications. Transitioned, Unhandled and
// Terminated run on the consumer's stack; Dropped and TimeoutInjected may run
// on a producer goroutine, so implementations must be safe for concurrent use.
type Observer interface {
	Transitioned(e *Engine, from, to StateID, ev EventID)
	Unhandled(e *Engine, ev Event)
	Dropped(e *Engine, ev Event)
	TimeoutInjected(e *Engine, state StateID)
	Terminated(e *Engine, value int)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) Transitioned(*Engine, StateID, StateID, EventID) {}
func (NopObserver) Unhandled(*Engine, Event)                        {}
func (NopObserver) Dropped(*Engine, Event)                          {}
func (NopObserver) TimeoutInjected(*Engine, StateID)                {}
func (NopObserver) Terminated(*Engine, int)                         {}

type multiObserver []Observer

// Observers fans notifications out to each observer in order.
func Observers(obs ...Observer) Observer { //nolint:ireturn
	out := make(multiObserver, 0, len(obs))

	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}

	return out
}

func (m multiObserver) Transitioned(e *Engine, from, to StateID, ev EventID) {
	for _, o := range m {
		o.Transitioned(e, from, to, ev)
	}
}

func (m multiObserver) Unhandled(e *Engine, ev Event) {
	for _, o := range m {
		o.Unhandled(e, ev)
	}
}

func (m multiObserver) Dropped(e *Engine, ev Event) {
	for _, o := range m {
		o.Dropped(e, ev)
	}
}

func (m multiObserver) TimeoutInjected(e *Engine, state StateID) {
	for _, o := range m {
		o.TimeoutInjected(e, state)
	}
}

func (m multiObserver) Terminated(e *Engine, value int) {
	for _, o := range m {
		o.Terminated(e, value)
	}
}
