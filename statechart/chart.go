package statechart

import "strconv"

type state struct {
	id     StateID
	name   string
	parent StateID
	def    StateID
	hooks  Hooks
	period uint32
}

// Transition is one row of the transition table.
type Transition struct {
	Source StateID
	Event  EventID
	Target StateID
	Action Action
}

// Chart is a compiled, immutable state tree and transition table. A Chart
// may back any number of engines.
type Chart struct {
	name        string
	states      []state // indexed by id, slot 0 is the sentinel
	order       []StateID
	children    [][]StateID
	transitions []Transition
	events      []string // indexed by event id
	index       []bounded[Transition]
	root        StateID
	maxDepth    int
	fingerprint uint64
}

// Name returns the chart name.
func (c *Chart) Name() string {
	return c.name
}

// Root returns the single root state.
func (c *Chart) Root() StateID {
	return c.root
}

// MaxDepth returns the depth limit the chart was validated against.
func (c *Chart) MaxDepth() int {
	return c.maxDepth
}

// Fingerprint is a stable hash of the compiled tables.
func (c *Chart) Fingerprint() uint64 {
	return c.fingerprint
}

// States returns all declared state ids in ascending order.
func (c *Chart) States() []StateID {
	return append([]StateID(nil), c.order...)
}

// Children returns the direct children of a state in ascending id order.
func (c *Chart) Children(id StateID) []StateID {
	if !c.Has(id) {
		return nil
	}

	return append([]StateID(nil), c.children[id]...)
}

// Has reports whether id names a declared state.
func (c *Chart) Has(id StateID) bool {
	return id > StateNone && int(id) < len(c.states) && c.states[id].id == id
}

// Parent returns the parent of a state, or StateNone for the root and for
// unknown ids.
func (c *Chart) Parent(id StateID) StateID {
	if !c.Has(id) {
		return StateNone
	}

	return c.states[id].parent
}

// DefaultSubstate returns the configured default substate, or StateNone.
func (c *Chart) DefaultSubstate(id StateID) StateID {
	if !c.Has(id) {
		return StateNone
	}

	return c.states[id].def
}

// Period returns the timed-event period a state was built with.
func (c *Chart) Period(id StateID) uint32 {
	if !c.Has(id) {
		return 0
	}

	return c.states[id].period
}

// StateName returns the name of a state.
func (c *Chart) StateName(id StateID) string {
	if !c.Has(id) {
		return strconv.Itoa(int(id))
	}

	return c.states[id].name
}

// StateByName looks a state up by name.
func (c *Chart) StateByName(name string) (StateID, bool) {
	for _, id := range c.order {
		if c.states[id].name == name {
			return id, true
		}
	}

	return StateNone, false
}

// NumEvents returns the number of user events. Valid ids are EventTimeout
// through NumEvents.
func (c *Chart) NumEvents() int {
	return len(c.events) - 1
}

// EventName returns the name of an event.
func (c *Chart) EventName(ev EventID) string {
	if ev < EventTimeout || int(ev) >= len(c.events) || c.events[ev] == "" {
		return strconv.Itoa(int(ev))
	}

	return c.events[ev]
}

// EventByName looks an event up by name.
func (c *Chart) EventByName(name string) (EventID, bool) {
	for i, n := range c.events {
		if n != "" && n == name {
			return EventID(i), true
		}
	}

	return EventTimeout, false
}

// Transitions returns a copy of the transition table in declaration order.
func (c *Chart) Transitions() []Transition {
	return append([]Transition(nil), c.transitions...)
}

// Candidates returns the event index slot for ev: every transition on that
// event in table order.
func (c *Chart) Candidates(ev EventID) []Transition {
	if ev < EventTimeout || int(ev) >= len(c.index) {
		return nil
	}

	return append([]Transition(nil), c.index[ev].all()...)
}

// Resolve follows the default-substate chain from id down to a leaf.
func (c *Chart) Resolve(id StateID) StateID {
	for c.Has(id) && c.states[id].def != StateNone {
		id = c.states[id].def
	}

	return id
}

// LCA returns the least common ancestor of a and b, which is a itself when
// a == b and StateNone when they share no ancestor.
//
// Both cursors climb in lock-step; a cursor that runs off the top restarts
// at the other state's origin, so both cover the same total distance and
// meet at the intersection of the two parent chains.
func (c *Chart) LCA(a, b StateID) StateID {
	x, y := a, b
	for x != y {
		switch {
		case x == StateNone:
			x = b
		case y == StateNone:
			y = a
		default:
			x = c.Parent(x)
			y = c.Parent(y)
		}
	}

	return x
}

// IsAncestor reports whether anc is id or one of its ancestors.
func (c *Chart) IsAncestor(anc, id StateID) bool {
	for s := id; s != StateNone; s = c.Parent(s) {
		if s == anc {
			return true
		}
	}

	return false
}

// match returns the first transition on ev whose source is exactly src.
func (c *Chart) match(ev EventID, src StateID) (Transition, bool) {
	if ev < EventTimeout || int(ev) >= len(c.index) {
		return Transition{}, false
	}

	for _, t := range c.index[ev].all() {
		if t.Source == src {
			return t, true
		}
	}

	return Transition{}, false
}
