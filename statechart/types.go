package statechart

// StateID identifies a state. Ids are positive, StateNone is reserved.
type StateID int

// EventID identifies an event. EventTimeout is reserved for the internally
// generated timeout event, user events start at FirstEvent.
type EventID int

const (
	// StateNone is the "no state" sentinel.
	StateNone StateID = 0

	// EventTimeout is injected by TickHook when a state's countdown expires.
	EventTimeout EventID = 0
	// FirstEvent is the first id available to user events.
	FirstEvent EventID = 1
)

const (
	// DefaultMaxDepth bounds the parent chain of any state.
	DefaultMaxDepth = 8
	// DefaultIndexCapacity bounds the number of transitions sharing one event id.
	DefaultIndexCapacity = 8
	// DefaultMaxRegistries bounds the number of actor registries per engine.
	DefaultMaxRegistries = 10
	// DefaultQueueCapacity is the capacity of the default event queue.
	DefaultQueueCapacity = 64
	// MaxStateID is the largest id a chart accepts. The chart is laid out by id.
	MaxStateID StateID = 1 << 16
)

// Action is a hook invoked synchronously on the consumer's stack. Entry, exit
// and transition actions receive the data of the event being processed; run
// actions and timeout-driven transitions receive the engine's user data.
type Action func(e *Engine, data any)

// Hooks groups the optional entry, run and exit actions of a state or actor.
type Hooks struct {
	Entry Action
	Run   Action
	Exit  Action
}

// Behavior is implemented by types that bundle the three hooks as methods.
type Behavior interface {
	Entry(e *Engine, data any)
	Run(e *Engine, data any)
	Exit(e *Engine, data any)
}

// HooksOf adapts a Behavior to Hooks.
func HooksOf(b Behavior) Hooks {
	if b == nil {
		return Hooks{}
	}

	return Hooks{
		Entry: b.Entry,
		Run:   b.Run,
		Exit:  b.Exit,
	}
}

// Event is a queued event with its opaque payload.
type Event struct {
	ID   EventID
	Data any
}

// Actor attaches hooks to a state id without touching the chart. Entry hooks
// fire when the id is the concrete leaf entered by a transition, exit hooks
// when it is the exit boundary of a transition, run hooks on every run pass
// while it is the current leaf.
type Actor struct {
	State StateID
	Hooks
}

func invoke(a Action, e *Engine, data any) {
	if a != nil {
		a(e, data)
	}
}
