package statechart_test

import (
	"testing"

	"github.com/amp-labs/amp-hsm/statechart"
	sctest "github.com/amp-labs/amp-hsm/statechart/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionRegistry(t *testing.T) {
	t.Parallel()

	reg := statechart.NewActionRegistry()
	reg.Register("b", func(*statechart.Engine, any) {})
	reg.Register("a", func(*statechart.Engine, any) {})

	assert.Equal(t, []string{"a", "b", "noop"}, reg.Names())

	fn, err := reg.Lookup("noop")
	require.NoError(t, err)
	assert.NotNil(t, fn)

	fn, err = reg.Lookup("")
	require.NoError(t, err)
	assert.Nil(t, fn)

	_, err = reg.Lookup("nope")
	require.ErrorIs(t, err, statechart.ErrUnknownAction)

	var empty *statechart.ActionRegistry

	_, err = empty.Lookup("noop")
	require.ErrorIs(t, err, statechart.ErrUnknownAction)
}

func TestDispatchAction(t *testing.T) {
	t.Parallel()

	rec := sctest.NewRecorder()
	chart, err := statechart.NewBuilder("chain").
		Events("GO", "NEXT").
		State(1, "ROOT", statechart.WithDefault(2)).
		State(2, "A", statechart.WithParent(1)).
		State(3, "B", statechart.WithParent(1), statechart.WithEntry(statechart.DispatchAction(2))).
		State(4, "C", statechart.WithParent(1)).
		Transition(2, 1, 3).
		Transition(3, 2, 4).
		Build()
	require.NoError(t, err)

	engine := sctest.NewTestEngine(t, chart, 2, rec)
	engine.Send(1)
	engine.AssertState("C")
	engine.AssertTransitionTaken("A", "B")
	engine.AssertTransitionTaken("B", "C")
}
