package statechart_test

import (
	"testing"

	"github.com/amp-labs/amp-hsm/queue"
	"github.com/amp-labs/amp-hsm/statechart"
	sctest "github.com/amp-labs/amp-hsm/statechart/testing"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBlinker(t *testing.T, opts ...statechart.Option) *sctest.TestEngine {
	t.Helper()

	rec := sctest.NewRecorder()
	opts = append([]statechart.Option{statechart.WithLogger(slogt.New(t))}, opts...)

	return sctest.NewTestEngine(t, sctest.Blinker(t, rec), sctest.BlinkOff, rec, opts...)
}

func newNested(t *testing.T, initial statechart.StateID) *sctest.TestEngine {
	t.Helper()

	rec := sctest.NewRecorder()

	return sctest.NewTestEngine(t, sctest.Nested(t, rec), initial, rec, statechart.WithLogger(slogt.New(t)))
}

func TestBlink(t *testing.T) {
	t.Parallel()

	engine := newBlinker(t)
	engine.AssertState("OFF")

	engine.Dispatch(sctest.EventToggle, nil)
	assert.Equal(t, 0, engine.Run())
	engine.AssertState("ON")

	engine.Dispatch(sctest.EventToggle, nil)
	assert.Equal(t, 0, engine.Run())
	engine.AssertState("OFF")
}

func TestInitialEntry(t *testing.T) {
	t.Parallel()

	t.Run("leaf", func(t *testing.T) {
		t.Parallel()

		engine := newBlinker(t)
		engine.AssertTrace("entry:OFF")
	})

	t.Run("composite resolves to default leaf", func(t *testing.T) {
		t.Parallel()

		engine := newNested(t, sctest.NestedRoot)
		engine.AssertState("A1")
		engine.AssertTrace("entry:ROOT", "entry:A", "entry:A1")
	})

	t.Run("nested composite", func(t *testing.T) {
		t.Parallel()

		engine := newNested(t, sctest.NestedB)
		engine.AssertState("B1")
		engine.AssertTrace("entry:B", "entry:B1")
	})
}

func TestTransitionOrder(t *testing.T) {
	t.Parallel()

	engine := newNested(t, sctest.NestedA)
	engine.Recorder().Reset()

	engine.Send(sctest.EventJump)
	engine.AssertState("B1")
	engine.AssertTrace("exit:A1", "exit:A", "action:jump", "entry:B", "entry:B1", "run:B1")

	engine.Send(sctest.EventJump)
	engine.AssertState("A2")
	engine.AssertTrace("exit:B1", "exit:B", "action:jump", "entry:A", "entry:A2", "run:A2")
}

func TestSiblingTransition(t *testing.T) {
	t.Parallel()

	engine := newNested(t, sctest.NestedA1)
	engine.Recorder().Reset()

	engine.Send(sctest.EventNext)
	engine.AssertState("A2")
	engine.AssertTrace("exit:A1", "action:next", "entry:A2", "run:A2")
}

func TestSelfTransition(t *testing.T) {
	t.Parallel()

	engine := newNested(t, sctest.NestedA2)
	engine.Recorder().Reset()

	engine.Send(sctest.EventSelf)
	engine.AssertState("A2")
	engine.AssertTrace("action:self", "entry:A2", "run:A2")
}

func TestAncestorHandlesEvent(t *testing.T) {
	t.Parallel()

	engine := newNested(t, sctest.NestedA2)
	engine.Recorder().Reset()

	engine.Send(sctest.EventUp)
	engine.AssertState("A1")
	engine.AssertTrace("exit:A2", "action:up", "entry:A1", "run:A1")
	engine.AssertTransitionTaken("A2", "A1")
}

func TestInnermostTransitionWins(t *testing.T) {
	t.Parallel()

	rec := sctest.NewRecorder()
	chart, err := sctest.NestedBuilder(rec).
		Transition(sctest.NestedA2, sctest.EventUp, sctest.NestedB).
		Build()
	require.NoError(t, err)

	engine := sctest.NewTestEngine(t, chart, sctest.NestedA2, rec)
	engine.Send(sctest.EventUp)
	engine.AssertState("B1")
}

func TestFirstMatchWins(t *testing.T) {
	t.Parallel()

	rec := sctest.NewRecorder()
	chart, err := sctest.BlinkerBuilder(rec).
		Transition(sctest.BlinkOff, sctest.EventToggle, sctest.BlinkOff).
		Build()
	require.NoError(t, err)

	engine := sctest.NewTestEngine(t, chart, sctest.BlinkOff, rec)
	engine.Send(sctest.EventToggle)
	engine.AssertState("ON")
}

func TestUnmatchedEventsDrainWithoutStateChange(t *testing.T) {
	t.Parallel()

	const capacity = 4

	engine := newBlinker(t, statechart.WithQueue(queue.NewRing[statechart.Event](capacity)))
	engine.Recorder().Reset()

	for range capacity - 1 {
		engine.Dispatch(sctest.EventOff, nil)
	}

	engine.Dispatch(sctest.EventOn, nil)
	assert.True(t, engine.HasPendingEvents())
	assert.Equal(t, capacity, engine.PendingEvents())

	assert.Equal(t, 0, engine.Run())
	assert.False(t, engine.HasPendingEvents())
	engine.AssertState("ON")

	rec := engine.Recorder()
	assert.Len(t, rec.Transitions(), 1)
	assert.Len(t, rec.UnhandledEvents(), capacity-1)
}

func TestTimeoutHasPriority(t *testing.T) {
	t.Parallel()

	rec := sctest.NewRecorder()
	chart, err := statechart.NewBuilder("priority").
		Events("X").
		State(1, "ROOT", statechart.WithDefault(2)).
		State(2, "OFF", statechart.WithParent(1), statechart.WithPeriod(3)).
		State(3, "ON", statechart.WithParent(1)).
		Transition(2, statechart.EventTimeout, 3).
		Transition(3, statechart.FirstEvent, 2).
		Build()
	require.NoError(t, err)

	engine := sctest.NewTestEngine(t, chart, 2, rec)

	engine.Tick(2)
	assert.False(t, engine.HasPendingEvents())
	assert.Equal(t, uint32(1), engine.Countdown(2))

	engine.Tick(1)
	assert.Equal(t, 1, engine.PendingEvents())

	engine.Dispatch(statechart.FirstEvent, nil)
	engine.Run()

	engine.AssertState("OFF")
	assert.Equal(t, []sctest.TransitionRecord{
		{From: "OFF", To: "ON", Event: "timeout"},
		{From: "ON", To: "OFF", Event: "X"},
	}, rec.Transitions())
	assert.Equal(t, []string{"OFF"}, rec.Timeouts())
	assert.Equal(t, uint32(3), engine.Countdown(2), "exit rearms the countdown")
}

func TestTickOnlyAdvancesCurrentState(t *testing.T) {
	t.Parallel()

	engine := newBlinker(t)
	require.NoError(t, engine.SetTimedEvent(sctest.BlinkOn, 2))
	require.NoError(t, engine.SetTimedEvent(sctest.BlinkOff, 5))

	engine.Tick(3)
	assert.Equal(t, uint32(2), engine.Countdown(sctest.BlinkOff))
	assert.Equal(t, uint32(2), engine.Countdown(sctest.BlinkOn))
	assert.False(t, engine.HasPendingEvents())

	engine.Send(sctest.EventOn)
	assert.Equal(t, uint32(5), engine.Countdown(sctest.BlinkOff))
}

func TestTimedEventDisabledAtZero(t *testing.T) {
	t.Parallel()

	engine := newBlinker(t)
	require.NoError(t, engine.SetTimedEvent(sctest.BlinkOff, 0))

	engine.Tick(10)
	assert.False(t, engine.HasPendingEvents())

	err := engine.SetTimedEvent(statechart.StateNone, 1)
	require.ErrorIs(t, err, statechart.ErrInvalidArgument)
}

func TestRunOnTick(t *testing.T) {
	t.Parallel()

	rec := sctest.NewRecorder()
	chart, err := sctest.BlinkerBuilder(rec).
		Transition(sctest.BlinkOff, statechart.EventTimeout, sctest.BlinkOn).
		Build()
	require.NoError(t, err)

	engine := sctest.NewTestEngine(t, chart, sctest.BlinkOff, rec, statechart.WithRunOnTick())
	require.NoError(t, engine.SetTimedEvent(sctest.BlinkOff, 2))

	engine.Tick(2)
	engine.AssertState("ON")
	assert.False(t, engine.HasPendingEvents())
}

func TestBackpressureDropsNewest(t *testing.T) {
	t.Parallel()

	const capacity = 3

	engine := newBlinker(t, statechart.WithQueue(queue.NewRing[statechart.Event](capacity)))

	for range capacity {
		engine.Dispatch(sctest.EventOff, nil)
	}

	engine.Dispatch(sctest.EventOn, nil)
	assert.Equal(t, capacity, engine.PendingEvents())
	assert.Equal(t, 1, engine.Recorder().DroppedCount())

	engine.Run()
	engine.AssertState("OFF")
}

func TestFlushEvents(t *testing.T) {
	t.Parallel()

	engine := newBlinker(t)
	engine.Dispatch(sctest.EventOn, nil)
	engine.Dispatch(sctest.EventOff, nil)
	require.Equal(t, 2, engine.PendingEvents())

	engine.FlushEvents()
	assert.False(t, engine.HasPendingEvents())

	engine.Run()
	engine.AssertState("OFF")
}

func TestTerminateFromExitAction(t *testing.T) {
	t.Parallel()

	rec := sctest.NewRecorder()
	runs := 0
	chart, err := statechart.NewBuilder("terminate").
		Events("GO", "BACK").
		State(1, "ROOT", statechart.WithDefault(2)).
		State(2, "A", statechart.WithParent(1), statechart.WithExit(statechart.TerminateWith(7))).
		State(3, "B", statechart.WithParent(1), statechart.WithEntry(rec.Action("B")),
			statechart.WithRun(func(*statechart.Engine, any) { runs++ })).
		Transition(2, 1, 3).
		Transition(3, 2, 2).
		Build()
	require.NoError(t, err)

	engine := sctest.NewTestEngine(t, chart, 2, rec)
	engine.Dispatch(1, nil)
	engine.Dispatch(2, nil)

	assert.Equal(t, 7, engine.Run())
	assert.True(t, engine.Terminated())
	assert.Equal(t, 1, engine.PendingEvents(), "remaining events are skipped")
	engine.AssertState("B")
	assert.Equal(t, 0, runs)

	engine.Dispatch(2, nil)
	assert.Equal(t, 7, engine.Run())
	assert.Equal(t, 7, engine.Run())
	engine.AssertState("B")
	assert.Equal(t, 0, runs)
	assert.Equal(t, []int{7}, rec.Terminations())

	require.NoError(t, engine.Reset(2, nil))
	assert.False(t, engine.Terminated())
	assert.Equal(t, 0, engine.Run())
}

func TestRunPassOrder(t *testing.T) {
	t.Parallel()

	engine := newBlinker(t)
	require.NoError(t, engine.LinkActors([]statechart.Actor{
		{State: sctest.BlinkOff, Hooks: engine.Recorder().ActorHooks("led")},
	}))
	engine.Recorder().Reset()

	assert.Equal(t, 0, engine.Run())
	engine.AssertTrace("run:OFF", "actor-run:led")
}

func TestActors(t *testing.T) {
	t.Parallel()

	engine := newBlinker(t)
	rec := engine.Recorder()

	require.NoError(t, engine.LinkActors([]statechart.Actor{
		{State: sctest.BlinkOn, Hooks: rec.ActorHooks("on")},
		{State: sctest.BlinkRoot, Hooks: rec.ActorHooks("root")},
	}))
	require.NoError(t, engine.LinkActors([]statechart.Actor{
		{State: sctest.BlinkOn, Hooks: rec.ActorHooks("on2")},
	}))
	rec.Reset()

	engine.Send(sctest.EventOn)
	engine.AssertTrace(
		"exit:OFF", "actor-exit:root",
		"action:on",
		"entry:ON", "actor-entry:on", "actor-entry:on2",
		"run:ON", "actor-run:on", "actor-run:on2",
	)
}

func TestLinkActorsErrors(t *testing.T) {
	t.Parallel()

	engine := newBlinker(t, statechart.WithMaxRegistries(1))

	err := engine.LinkActors(nil)
	require.ErrorIs(t, err, statechart.ErrInvalidArgument)

	err = engine.LinkActors([]statechart.Actor{{State: 42}})
	require.ErrorIs(t, err, statechart.ErrInvalidArgument)
	require.ErrorIs(t, err, statechart.ErrUnknownState)

	actors := []statechart.Actor{{State: sctest.BlinkOn}}
	require.NoError(t, engine.LinkActors(actors))

	err = engine.LinkActors(actors)
	require.ErrorIs(t, err, statechart.ErrResourceExhausted)
	require.ErrorIs(t, err, statechart.ErrCapacityExceeded)

	require.NoError(t, engine.Reset(sctest.BlinkOff, nil))
	require.NoError(t, engine.LinkActors(actors), "reset clears registries")
}

func TestNewErrors(t *testing.T) {
	t.Parallel()

	_, err := statechart.New(nil, 1, nil)
	require.ErrorIs(t, err, statechart.ErrInvalidArgument)

	chart := sctest.Blinker(t, sctest.NewRecorder())

	_, err = statechart.New(chart, statechart.StateNone, nil)
	require.ErrorIs(t, err, statechart.ErrInvalidArgument)

	_, err = statechart.New(chart, 99, nil)
	require.ErrorIs(t, err, statechart.ErrInvalidArgument)

	_, err = statechart.New(chart, sctest.BlinkOff, nil, statechart.WithMaxRegistries(0))
	require.ErrorIs(t, err, statechart.ErrInvalidArgument)

	empty, err := statechart.NewBuilder("empty").State(1, "ONLY").Build()
	require.NoError(t, err)

	_, err = statechart.New(empty, 1, nil)
	require.ErrorIs(t, err, statechart.ErrInvalidConfiguration)
}

func TestNilEngine(t *testing.T) {
	t.Parallel()

	var engine *statechart.Engine

	assert.Equal(t, statechart.StateNone, engine.State())
	assert.Equal(t, statechart.RunInvalid, engine.Run())
	assert.False(t, engine.HasPendingEvents())
	assert.False(t, engine.Terminated())
	assert.False(t, engine.IsIn(1))
	require.ErrorIs(t, engine.Reset(1, nil), statechart.ErrInvalidArgument)
	require.ErrorIs(t, engine.SetTimedEvent(1, 1), statechart.ErrInvalidArgument)
	require.ErrorIs(t, engine.LinkActors([]statechart.Actor{{State: 1}}), statechart.ErrInvalidArgument)

	engine.Dispatch(1, nil)
	engine.TickHook()
	engine.Terminate(1)
	engine.FlushEvents()
}

func TestDataFlow(t *testing.T) {
	t.Parallel()

	var seen []any

	record := func(_ *statechart.Engine, data any) { seen = append(seen, data) }

	chart, err := statechart.NewBuilder("data").
		Events("GO").
		State(1, "ROOT", statechart.WithDefault(2)).
		State(2, "A", statechart.WithParent(1), statechart.WithPeriod(1), statechart.WithExit(record)).
		State(3, "B", statechart.WithParent(1), statechart.WithEntry(record), statechart.WithRun(record)).
		Transition(2, statechart.FirstEvent, 3, statechart.WithAction(record)).
		Transition(3, statechart.EventTimeout, 2).
		Transition(2, statechart.EventTimeout, 3).
		Build()
	require.NoError(t, err)

	engine, err := statechart.New(chart, 2, "user")
	require.NoError(t, err)
	assert.Equal(t, "user", engine.Data())

	engine.Dispatch(statechart.FirstEvent, "event")
	engine.Run()
	assert.Equal(t, []any{"event", "event", "event", "user"}, seen)

	seen = nil

	require.NoError(t, engine.Reset(2, nil))
	engine.SetData("ticked")
	engine.TickHook()
	engine.Run()
	assert.Equal(t, []any{"ticked", "ticked", "ticked"}, seen)
}

func TestIsIn(t *testing.T) {
	t.Parallel()

	engine := newNested(t, sctest.NestedA2)

	assert.True(t, engine.IsIn(sctest.NestedA2))
	assert.True(t, engine.IsIn(sctest.NestedA))
	assert.True(t, engine.IsIn(sctest.NestedRoot))
	assert.False(t, engine.IsIn(sctest.NestedB))
	assert.False(t, engine.IsIn(statechart.StateNone))
}

func TestEnginesShareChart(t *testing.T) {
	t.Parallel()

	rec := sctest.NewRecorder()
	chart := sctest.Blinker(t, rec)

	a := sctest.NewTestEngine(t, chart, sctest.BlinkOff, nil)
	b := sctest.NewTestEngine(t, chart, sctest.BlinkOff, nil)

	a.Send(sctest.EventToggle)
	a.AssertState("ON")
	b.AssertState("OFF")
	assert.NotEqual(t, a.ID(), b.ID())
}
