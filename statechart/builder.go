package statechart

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/zeebo/xxh3"
)

// StateOption configures a state declared on a Builder.
type StateOption func(*state)

// WithParent nests the state under parent.
func WithParent(parent StateID) StateOption {
	return func(s *state) {
		s.parent = parent
	}
}

// WithDefault sets the substate entered when the state is targeted directly.
func WithDefault(sub StateID) StateOption {
	return func(s *state) {
		s.def = sub
	}
}

// WithEntry sets the entry action.
func WithEntry(fn Action) StateOption {
	return func(s *state) {
		s.hooks.Entry = fn
	}
}

// WithRun sets the run action.
func WithRun(fn Action) StateOption {
	return func(s *state) {
		s.hooks.Run = fn
	}
}

// WithExit sets the exit action.
func WithExit(fn Action) StateOption {
	return func(s *state) {
		s.hooks.Exit = fn
	}
}

// WithHooks sets all three actions at once.
func WithHooks(h Hooks) StateOption {
	return func(s *state) {
		s.hooks = h
	}
}

// WithBehavior sets the actions from a Behavior implementation.
func WithBehavior(b Behavior) StateOption {
	return WithHooks(HooksOf(b))
}

// WithPeriod seeds the state's timed-event period, in ticks. Zero disables it.
func WithPeriod(ticks uint32) StateOption {
	return func(s *state) {
		s.period = ticks
	}
}

// TransitionOption configures a transition declared on a Builder.
type TransitionOption func(*Transition)

// WithAction runs fn between the exit and entry phases of the transition.
func WithAction(fn Action) TransitionOption {
	return func(t *Transition) {
		t.Action = fn
	}
}

// Builder collects states and transitions and compiles them into a Chart.
type Builder struct {
	name          string
	states        []state
	transitions   []Transition
	events        []string
	eventCount    int
	maxDepth      int
	indexCapacity int
}

// NewBuilder creates a new chart builder.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:          name,
		maxDepth:      DefaultMaxDepth,
		indexCapacity: DefaultIndexCapacity,
	}
}

// State declares a state. An empty name defaults to "S<id>".
func (b *Builder) State(id StateID, name string, opts ...StateOption) *Builder {
	s := state{id: id, name: name}
	if s.name == "" {
		s.name = fmt.Sprintf("S%d", id)
	}

	for _, opt := range opts {
		opt(&s)
	}

	b.states = append(b.states, s)

	return b
}

// Transition declares a row of the transition table.
func (b *Builder) Transition(source StateID, event EventID, target StateID, opts ...TransitionOption) *Builder {
	t := Transition{
		Source: source,
		Event:  event,
		Target: target,
	}
	for _, opt := range opts {
		opt(&t)
	}

	b.transitions = append(b.transitions, t)

	return b
}

// Events names the user events in id order starting at FirstEvent.
func (b *Builder) Events(names ...string) *Builder {
	b.events = names
	b.eventCount = max(b.eventCount, len(names))

	return b
}

// EventCount sets the number of user events. When neither Events nor
// EventCount is called, the highest event id used by a transition is taken.
func (b *Builder) EventCount(n int) *Builder {
	b.eventCount = n

	return b
}

// MaxDepth overrides DefaultMaxDepth.
func (b *Builder) MaxDepth(n int) *Builder {
	b.maxDepth = n

	return b
}

// IndexCapacity overrides DefaultIndexCapacity.
func (b *Builder) IndexCapacity(n int) *Builder {
	b.indexCapacity = n

	return b
}

// Build validates the declarations and compiles the chart. All problems
// found are reported together.
func (b *Builder) Build() (*Chart, error) {
	if len(b.states) == 0 {
		return nil, fmt.Errorf("%w: no states declared", ErrInvalidConfiguration)
	}

	if b.maxDepth < 1 || b.indexCapacity < 1 || b.eventCount < 0 {
		return nil, fmt.Errorf("%w: depth, index capacity and event count must be positive", ErrInvalidConfiguration)
	}

	chart, err := b.arena()
	if err != nil {
		return nil, err
	}

	var errs []error

	errs = append(errs, chart.checkHierarchy()...)
	errs = append(errs, b.compileTransitions(chart)...)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	chart.fingerprint = chart.hash()

	return chart, nil
}

// arena lays the states out by id and checks every reference resolves.
func (b *Builder) arena() (*Chart, error) {
	var errs []error

	maxID := StateNone
	for _, s := range b.states {
		if s.id <= MaxStateID {
			maxID = max(maxID, s.id)
		}
	}

	chart := &Chart{
		name:     b.name,
		states:   make([]state, maxID+1),
		children: make([][]StateID, maxID+1),
		maxDepth: b.maxDepth,
	}

	names := make(map[string]StateID, len(b.states))

	for _, s := range b.states {
		switch {
		case s.id <= StateNone:
			errs = append(errs, WrapStateError(s.id, fmt.Errorf("%w: ids start at 1", ErrInvalidArgument)))

			continue
		case s.id > MaxStateID:
			errs = append(errs, WrapStateError(s.id, fmt.Errorf("%w: id above %d", ErrInvalidArgument, MaxStateID)))

			continue
		case chart.states[s.id].id != StateNone:
			errs = append(errs, WrapStateError(s.id, ErrDuplicateState))

			continue
		}

		if other, ok := names[s.name]; ok {
			errs = append(errs, WrapStateError(s.id, fmt.Errorf("%w: name %q already used by %d",
				ErrDuplicateState, s.name, other)))

			continue
		}

		names[s.name] = s.id
		chart.states[s.id] = s
		chart.order = append(chart.order, s.id)
	}

	slices.Sort(chart.order)

	var roots []StateID

	for _, id := range chart.order {
		s := chart.states[id]

		if s.parent == StateNone {
			roots = append(roots, id)
		} else if !chart.Has(s.parent) {
			errs = append(errs, WrapStateError(id, fmt.Errorf("%w: parent %d", ErrUnknownState, s.parent)))
		} else {
			chart.children[s.parent] = append(chart.children[s.parent], id)
		}

		if s.def != StateNone && !chart.Has(s.def) {
			errs = append(errs, WrapStateError(id, fmt.Errorf("%w: default substate %d", ErrUnknownState, s.def)))
		}
	}

	switch {
	case len(roots) > 1:
		errs = append(errs, fmt.Errorf("%w: %v", ErrMultipleRoots, roots))
	case len(roots) == 1:
		chart.root = roots[0]
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return chart, nil
}

// checkHierarchy rejects parent cycles, chains deeper than maxDepth and
// default-substate chains that never reach a leaf.
func (c *Chart) checkHierarchy() []error {
	var errs []error

	if c.root == StateNone {
		errs = append(errs, fmt.Errorf("%w: no root state", ErrCycle))
	}

	for _, id := range c.order {
		depth := 0
		for s := id; s != StateNone; s = c.states[s].parent {
			depth++
			if depth > len(c.order) {
				errs = append(errs, WrapStateError(id, fmt.Errorf("%w: parent chain", ErrCycle)))

				break
			}
		}

		if depth > c.maxDepth && depth <= len(c.order) {
			errs = append(errs, WrapStateError(id, fmt.Errorf("%w: depth %d, limit %d",
				ErrDepthExceeded, depth, c.maxDepth)))
		}

		steps := 0
		for s := c.states[id].def; s != StateNone; s = c.states[s].def {
			steps++
			if steps > len(c.order) {
				errs = append(errs, WrapStateError(id, fmt.Errorf("%w: default substate chain", ErrCycle)))

				break
			}
		}
	}

	return errs
}

// compileTransitions checks the table and builds the per-event index.
func (b *Builder) compileTransitions(c *Chart) []error {
	var errs []error

	eventCount := max(b.eventCount, len(b.events))
	if eventCount == 0 {
		for _, t := range b.transitions {
			eventCount = max(eventCount, int(t.Event))
		}
	}

	c.events = make([]string, eventCount+1)
	c.events[EventTimeout] = "timeout"

	for i, name := range b.events {
		c.events[int(FirstEvent)+i] = name
	}

	c.index = make([]bounded[Transition], eventCount+1)
	for i := range c.index {
		c.index[i] = newBounded[Transition](b.indexCapacity)
	}

	for i, t := range b.transitions {
		var err error

		switch {
		case !c.Has(t.Source):
			err = fmt.Errorf("%w: source", ErrUnknownState)
		case !c.Has(t.Target):
			err = fmt.Errorf("%w: target", ErrUnknownState)
		case t.Event < EventTimeout || int(t.Event) > eventCount:
			err = fmt.Errorf("%w: valid range is 0..%d", ErrInvalidEvent, eventCount)
		default:
			err = c.index[t.Event].add(t)
		}

		if err != nil {
			errs = append(errs, &TransitionError{
				Index:  i + 1,
				Source: t.Source,
				Event:  t.Event,
				Target: t.Target,
				Err:    err,
			})

			continue
		}

		c.transitions = append(c.transitions, t)
	}

	return errs
}

func (c *Chart) hash() uint64 {
	h := xxh3.New()

	var buf [8]byte

	word := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v)) //nolint:gosec // ids are non-negative
		_, _ = h.Write(buf[:])
	}

	_, _ = h.WriteString(c.name)

	for _, id := range c.order {
		s := c.states[id]
		word(int(s.id))
		word(int(s.parent))
		word(int(s.def))
		word(int(s.period))
		_, _ = h.WriteString(s.name)
	}

	for _, t := range c.transitions {
		word(int(t.Source))
		word(int(t.Event))
		word(int(t.Target))
	}

	for _, name := range c.events {
		_, _ = h.WriteString(name)
	}

	return h.Sum64()
}
