package testing

import (
	"testing"

	"github.com/amp-labs/amp-hsm/statechart"
)

// Step is one stimulus applied to the engine: ticks first, then dispatches,
// then a run pass unless SkipRun is set.
type Step struct {
	Ticks    int
	Dispatch []statechart.EventID
	SkipRun  bool
}

// Scenario drives a fresh engine through steps and checks matchers after
// the last one.
type Scenario struct {
	Name    string
	Chart   func(rec *Recorder) *statechart.Builder
	Initial statechart.StateID
	Options []statechart.Option
	Steps   []Step
	Expect  []Matcher
}

// RunScenario executes a scenario in a subtest.
func RunScenario(t *testing.T, scenario Scenario) {
	t.Helper()
	t.Run(scenario.Name, func(t *testing.T) {
		t.Parallel()

		rec := NewRecorder()

		chart, err := scenario.Chart(rec).Build()
		if err != nil {
			t.Fatalf("chart build failed: %v", err)
		}

		engine := NewTestEngine(t, chart, scenario.Initial, rec, scenario.Options...)

		for _, step := range scenario.Steps {
			engine.Tick(step.Ticks)

			for _, ev := range step.Dispatch {
				engine.Dispatch(ev, nil)
			}

			if !step.SkipRun {
				engine.Run()
			}
		}

		engine.Expect(scenario.Expect...)
	})
}

// BlinkScenario toggles the blinker twice and expects it back in OFF.
func BlinkScenario() Scenario {
	return Scenario{
		Name:    "Blink",
		Chart:   BlinkerBuilder,
		Initial: BlinkOff,
		Steps: []Step{
			{Dispatch: []statechart.EventID{EventToggle}},
			{Dispatch: []statechart.EventID{EventToggle}},
		},
		Expect: []Matcher{
			StateIs("OFF"),
			TransitionWasTaken("OFF", "ON"),
			TransitionWasTaken("ON", "OFF"),
		},
	}
}

// CompositeTargetScenario jumps into a composite state and expects its
// default leaf.
func CompositeTargetScenario() Scenario {
	return Scenario{
		Name:    "Composite target",
		Chart:   NestedBuilder,
		Initial: NestedRoot,
		Steps: []Step{
			{Dispatch: []statechart.EventID{EventJump}},
		},
		Expect: []Matcher{
			StateIs("B1"),
			IsIn("B"),
			TraceContains("exit:A1", "exit:A", "action:jump", "entry:B", "entry:B1"),
		},
	}
}
