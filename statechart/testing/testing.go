// Package testing provides testing utilities for statechart engines.
package testing

import (
	"fmt"
	"testing"

	"github.com/amp-labs/amp-hsm/statechart"
	"github.com/stretchr/testify/require"
)

// TestEngine wraps Engine with a Recorder and assertion helpers.
type TestEngine struct {
	*statechart.Engine

	t          *testing.T
	recorder   *Recorder
	assertions []Assertion
}

// Assertion represents a test assertion.
type Assertion struct {
	Name   string
	Passed bool
	Error  error
}

// NewTestEngine creates an engine for chart entering initial. The recorder
// is installed as the observer in front of any observer given in opts.
func NewTestEngine(
	t *testing.T, chart *statechart.Chart, initial statechart.StateID, rec *Recorder, opts ...statechart.Option,
) *TestEngine {
	t.Helper()

	if rec == nil {
		rec = NewRecorder()
	}

	opts = append([]statechart.Option{statechart.WithObserver(rec)}, opts...)

	engine, err := statechart.New(chart, initial, nil, opts...)
	require.NoError(t, err, "failed to create engine")

	return &TestEngine{
		Engine:   engine,
		t:        t,
		recorder: rec,
	}
}

// Recorder returns the recorder attached to the engine.
func (te *TestEngine) Recorder() *Recorder {
	return te.recorder
}

// Send dispatches each event with nil data, then runs once.
func (te *TestEngine) Send(events ...statechart.EventID) int {
	te.t.Helper()

	for _, ev := range events {
		te.Dispatch(ev, nil)
	}

	return te.Run()
}

// Tick calls TickHook n times.
func (te *TestEngine) Tick(n int) {
	for range n {
		te.TickHook()
	}
}

// StateName returns the name of the current state.
func (te *TestEngine) StateName() string {
	return te.Chart().StateName(te.State())
}

// AssertState checks the current leaf.
func (te *TestEngine) AssertState(expected string) {
	te.t.Helper()

	actual := te.StateName()
	te.note(fmt.Sprintf("State is '%s'", expected), actual == expected,
		fmt.Errorf("%w: expected '%s', got '%s'", ErrUnexpectedState, expected, actual))
	require.Equal(te.t, expected, actual, "current state should be '%s'", expected)
}

// AssertTransitionTaken checks that a transition between the named leaves
// was observed.
func (te *TestEngine) AssertTransitionTaken(from, to string) {
	te.t.Helper()

	ok, err := TransitionWasTaken(from, to).Match(te)
	te.note(fmt.Sprintf("Transition from '%s' to '%s' was taken", from, to), ok, err)
	require.True(te.t, ok, "transition from '%s' to '%s' should have been taken", from, to)
}

// AssertTrace checks the full hook trace recorded so far, then clears the
// trace. Observed transitions are kept.
func (te *TestEngine) AssertTrace(expected ...string) {
	te.t.Helper()

	actual := te.recorder.Trace()
	te.recorder.ResetTrace()

	te.note("Trace matches", fmt.Sprint(actual) == fmt.Sprint(expected),
		fmt.Errorf("%w: %v", ErrTraceMismatch, actual))
	require.Equal(te.t, expected, actual, "hook trace")
}

// Expect runs all matchers and fails on the first one that does not match.
func (te *TestEngine) Expect(matchers ...Matcher) {
	te.t.Helper()

	for _, m := range matchers {
		ok, err := m.Match(te)
		te.note(m.Description(), ok, err)
		require.True(te.t, ok, "%s: %v", m.Description(), err)
	}
}

// GetAssertions returns all assertions made.
func (te *TestEngine) GetAssertions() []Assertion {
	return te.assertions
}

func (te *TestEngine) note(name string, passed bool, err error) {
	assertion := Assertion{Name: name, Passed: passed}
	if !passed {
		assertion.Error = err
	}

	te.assertions = append(te.assertions, assertion)
}
