package testing

import (
	"errors"
	"fmt"
	"slices"
)

// Matcher errors.
var (
	ErrUnexpectedState    = errors.New("unexpected state")
	ErrTransitionNotTaken = errors.New("transition was not taken")
	ErrTraceMismatch      = errors.New("hook trace mismatch")
	ErrTraceMissing       = errors.New("trace entry missing")
	ErrNotTerminated      = errors.New("engine was not terminated")
	ErrPendingEvents      = errors.New("pending event count mismatch")
)

// Matcher defines an assertion matcher interface.
type Matcher interface {
	Match(engine *TestEngine) (bool, error)
	Description() string
}

// StateIs matches the current leaf by name.
func StateIs(name string) Matcher {
	return &stateIsMatcher{name: name}
}

type stateIsMatcher struct {
	name string
}

func (m *stateIsMatcher) Match(engine *TestEngine) (bool, error) {
	if actual := engine.StateName(); actual != m.name {
		return false, fmt.Errorf("%w: expected '%s', got '%s'", ErrUnexpectedState, m.name, actual)
	}

	return true, nil
}

func (m *stateIsMatcher) Description() string {
	return fmt.Sprintf("state should be '%s'", m.name)
}

// IsIn matches when the named state is the current leaf or an ancestor of it.
func IsIn(name string) Matcher {
	return &isInMatcher{name: name}
}

type isInMatcher struct {
	name string
}

func (m *isInMatcher) Match(engine *TestEngine) (bool, error) {
	id, ok := engine.Chart().StateByName(m.name)
	if !ok || !engine.IsIn(id) {
		return false, fmt.Errorf("%w: not in '%s' (current '%s')", ErrUnexpectedState, m.name, engine.StateName())
	}

	return true, nil
}

func (m *isInMatcher) Description() string {
	return fmt.Sprintf("engine should be in '%s'", m.name)
}

// TransitionWasTaken creates a matcher that checks if a transition occurred.
func TransitionWasTaken(from, to string) Matcher {
	return &transitionTakenMatcher{from: from, to: to}
}

type transitionTakenMatcher struct {
	from string
	to   string
}

func (m *transitionTakenMatcher) Match(engine *TestEngine) (bool, error) {
	for _, tr := range engine.recorder.Transitions() {
		if tr.From == m.from && tr.To == m.to {
			return true, nil
		}
	}

	return false, fmt.Errorf("%w: from '%s' to '%s'", ErrTransitionNotTaken, m.from, m.to)
}

func (m *transitionTakenMatcher) Description() string {
	return fmt.Sprintf("transition from '%s' to '%s' should be taken", m.from, m.to)
}

// TraceContains matches when every entry appears in the trace, in order but
// not necessarily adjacent.
func TraceContains(entries ...string) Matcher {
	return &traceContainsMatcher{entries: entries}
}

type traceContainsMatcher struct {
	entries []string
}

func (m *traceContainsMatcher) Match(engine *TestEngine) (bool, error) {
	trace := engine.recorder.Trace()

	pos := 0
	for _, want := range m.entries {
		i := slices.Index(trace[pos:], want)
		if i < 0 {
			return false, fmt.Errorf("%w: '%s'", ErrTraceMissing, want)
		}

		pos += i + 1
	}

	return true, nil
}

func (m *traceContainsMatcher) Description() string {
	return fmt.Sprintf("trace should contain %v", m.entries)
}

// TerminatedWith matches a terminated engine whose Run returns value.
func TerminatedWith(value int) Matcher {
	return &terminatedMatcher{value: value}
}

type terminatedMatcher struct {
	value int
}

func (m *terminatedMatcher) Match(engine *TestEngine) (bool, error) {
	if !engine.Terminated() {
		return false, ErrNotTerminated
	}

	if got := engine.Run(); got != m.value {
		return false, fmt.Errorf("%w: run returned %d, expected %d", ErrNotTerminated, got, m.value)
	}

	return true, nil
}

func (m *terminatedMatcher) Description() string {
	return fmt.Sprintf("engine should be terminated with %d", m.value)
}

// PendingEvents matches the queue length.
func PendingEvents(n int) Matcher {
	return &pendingMatcher{n: n}
}

type pendingMatcher struct {
	n int
}

func (m *pendingMatcher) Match(engine *TestEngine) (bool, error) {
	if got := engine.PendingEvents(); got != m.n {
		return false, fmt.Errorf("%w: %d pending, expected %d", ErrPendingEvents, got, m.n)
	}

	return true, nil
}

func (m *pendingMatcher) Description() string {
	return fmt.Sprintf("%d events should be pending", m.n)
}
