package testing

import (
	"testing"

	"github.com/amp-labs/amp-hsm/statechart"
	"github.com/stretchr/testify/require"
)

// Blinker state and event ids.
const (
	BlinkRoot statechart.StateID = iota + 1
	BlinkOff
	BlinkOn
)

const (
	EventOn statechart.EventID = iota + statechart.FirstEvent
	EventOff
	EventToggle
)

// BlinkerBuilder returns the two-state blinker: OFF and ON under ROOT, with
// ON/OFF/TOGGLE events. Every hook records into rec.
func BlinkerBuilder(rec *Recorder) *statechart.Builder {
	return statechart.NewBuilder("blinker").
		Events("ON", "OFF", "TOGGLE").
		State(BlinkRoot, "ROOT", statechart.WithDefault(BlinkOff), statechart.WithHooks(rec.Hooks("ROOT"))).
		State(BlinkOff, "OFF", statechart.WithParent(BlinkRoot), statechart.WithHooks(rec.Hooks("OFF"))).
		State(BlinkOn, "ON", statechart.WithParent(BlinkRoot), statechart.WithHooks(rec.Hooks("ON"))).
		Transition(BlinkOff, EventOn, BlinkOn, statechart.WithAction(rec.Action("on"))).
		Transition(BlinkOn, EventOff, BlinkOff, statechart.WithAction(rec.Action("off"))).
		Transition(BlinkOff, EventToggle, BlinkOn, statechart.WithAction(rec.Action("toggle"))).
		Transition(BlinkOn, EventToggle, BlinkOff, statechart.WithAction(rec.Action("toggle")))
}

// Blinker builds the blinker chart.
func Blinker(t *testing.T, rec *Recorder) *statechart.Chart {
	t.Helper()

	chart, err := BlinkerBuilder(rec).Build()
	require.NoError(t, err, "blinker chart should build")

	return chart
}

// Nested chart ids.
//
//	ROOT
//	├── A (default A1)
//	│   ├── A1
//	│   └── A2
//	└── B (default B1)
//	    └── B1
const (
	NestedRoot statechart.StateID = iota + 1
	NestedA
	NestedA1
	NestedA2
	NestedB
	NestedB1
)

const (
	EventNext statechart.EventID = iota + statechart.FirstEvent
	EventJump
	EventSelf
	EventUp
)

// NestedBuilder returns a three-level chart exercising composite targets,
// ancestor handlers and self-transitions.
func NestedBuilder(rec *Recorder) *statechart.Builder {
	return statechart.NewBuilder("nested").
		Events("next", "jump", "self", "up").
		State(NestedRoot, "ROOT", statechart.WithDefault(NestedA), statechart.WithHooks(rec.Hooks("ROOT"))).
		State(NestedA, "A", statechart.WithParent(NestedRoot), statechart.WithDefault(NestedA1),
			statechart.WithHooks(rec.Hooks("A"))).
		State(NestedA1, "A1", statechart.WithParent(NestedA), statechart.WithHooks(rec.Hooks("A1"))).
		State(NestedA2, "A2", statechart.WithParent(NestedA), statechart.WithHooks(rec.Hooks("A2"))).
		State(NestedB, "B", statechart.WithParent(NestedRoot), statechart.WithDefault(NestedB1),
			statechart.WithHooks(rec.Hooks("B"))).
		State(NestedB1, "B1", statechart.WithParent(NestedB), statechart.WithHooks(rec.Hooks("B1"))).
		Transition(NestedA1, EventNext, NestedA2, statechart.WithAction(rec.Action("next"))).
		Transition(NestedA1, EventJump, NestedB, statechart.WithAction(rec.Action("jump"))).
		Transition(NestedB1, EventJump, NestedA2, statechart.WithAction(rec.Action("jump"))).
		Transition(NestedA2, EventSelf, NestedA2, statechart.WithAction(rec.Action("self"))).
		Transition(NestedA, EventUp, NestedA, statechart.WithAction(rec.Action("up")))
}

// Nested builds the nested chart.
func Nested(t *testing.T, rec *Recorder) *statechart.Chart {
	t.Helper()

	chart, err := NestedBuilder(rec).Build()
	require.NoError(t, err, "nested chart should build")

	return chart
}
