package cli

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/amp-labs/amp-hsm/logger"
	"github.com/amp-labs/amp-hsm/queue"
	"github.com/amp-labs/amp-hsm/statechart"
	"github.com/spf13/cobra"
)

const tickStep = "tick"

// SimulateOptions holds flags for the simulate command.
type SimulateOptions struct {
	RunOnTick     bool
	Expect        string
	QueueCapacity int
}

// TrailEntry is one thing that happened during a simulation. Step 0 is the
// initial entry.
type TrailEntry struct {
	Step   int    `json:"step"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// SimulateResult is the JSON payload of the simulate command.
type SimulateResult struct {
	Chart       string       `json:"chart"`
	Fingerprint string       `json:"fingerprint"`
	Engine      string       `json:"engine"`
	Initial     string       `json:"initial"`
	Final       string       `json:"final"`
	Steps       []string     `json:"steps"`
	Terminated  bool         `json:"terminated"`
	Value       int          `json:"value"`
	Dropped     int          `json:"dropped"`
	Trail       []TrailEntry `json:"trail"`
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate <chart.yaml> [step...]",
		Short: "Drive a chart with events and timer ticks",
		Long: `Drive a chart with events and timer ticks and print what happened.

Each step is an event name, "tick" or "tick:N". After every step the
engine runs once. Actions named in the chart are recorded instead of
executed, except "terminate:N", which terminates the engine with N.`,
		Example: `  hsmctl simulate blinker.yaml TOGGLE tick:3 OFF
  hsmctl simulate blinker.yaml tick:3 --expect ON --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, rootOpts, opts, args[0], args[1:])
		},
	}

	cmd.Flags().BoolVar(&opts.RunOnTick, "run-on-tick", false, "run the engine from the tick hook when a timeout fires")
	cmd.Flags().StringVar(&opts.Expect, "expect", "", "fail unless the engine ends in this state")
	cmd.Flags().IntVar(&opts.QueueCapacity, "queue-capacity", statechart.DefaultQueueCapacity, "event queue capacity")

	return cmd
}

type simStep struct {
	raw   string
	event statechart.EventID
	ticks int
}

func parseSteps(config *statechart.Config, args []string) ([]simStep, error) {
	steps := make([]simStep, 0, len(args))

	for _, arg := range args {
		if arg == tickStep {
			steps = append(steps, simStep{raw: arg, ticks: 1})

			continue
		}

		if n, ok := strings.CutPrefix(arg, tickStep+":"); ok {
			ticks, err := strconv.Atoi(n)
			if err != nil || ticks < 1 {
				return nil, fmt.Errorf("bad tick count in %q", arg)
			}

			steps = append(steps, simStep{raw: arg, ticks: ticks})

			continue
		}

		ev, ok := config.EventID(arg)
		if !ok {
			return nil, fmt.Errorf("unknown event %q", arg)
		}

		steps = append(steps, simStep{raw: arg, event: ev})
	}

	return steps, nil
}

// trail records engine notifications and actions for one simulation.
type trail struct {
	mu         sync.Mutex
	step       int
	entries    []TrailEntry
	dropped    int
	terminated bool
	value      int
}

func (t *trail) add(kind, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries = append(t.entries, TrailEntry{Step: t.step, Kind: kind, Detail: detail})
}

func (t *trail) setStep(step int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.step = step
}

func (t *trail) Transitioned(e *statechart.Engine, from, to statechart.StateID, ev statechart.EventID) {
	c := e.Chart()
	t.add("transition", fmt.Sprintf("%s --%s--> %s", c.StateName(from), c.EventName(ev), c.StateName(to)))
}

func (t *trail) Unhandled(e *statechart.Engine, ev statechart.Event) {
	t.add("unhandled", e.Chart().EventName(ev.ID))
}

func (t *trail) Dropped(e *statechart.Engine, ev statechart.Event) {
	t.add("dropped", e.Chart().EventName(ev.ID))

	t.mu.Lock()
	t.dropped++
	t.mu.Unlock()
}

func (t *trail) TimeoutInjected(e *statechart.Engine, state statechart.StateID) {
	t.add("timeout", e.Chart().StateName(state))
}

func (t *trail) Terminated(_ *statechart.Engine, value int) {
	t.add("terminated", strconv.Itoa(value))

	t.mu.Lock()
	t.terminated = true
	t.value = value
	t.mu.Unlock()
}

func runSimulate(cmd *cobra.Command, rootOpts *RootOptions, opts *SimulateOptions, path string, args []string) error {
	ctx := cmd.Context()
	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

	config, err := loadConfig(path)
	if err != nil {
		_ = formatter.Failure(CodeLoadFailed, err.Error(), nil)

		return err
	}

	steps, err := parseSteps(config, args)
	if err != nil {
		_ = formatter.Failure(CodeBadStep, err.Error(), nil)

		return WrapExitError(ExitCommandError, "bad step", err)
	}

	tr := &trail{}

	registry, err := bindActions(config, func(_ *statechart.Engine, name string) {
		tr.add("action", name)
	})
	if err != nil {
		_ = formatter.Failure(CodeCompileFailed, err.Error(), nil)

		return WrapExitError(ExitCommandError, "bad action", err)
	}

	chart, err := config.Compile(registry)
	if err != nil {
		_ = formatter.Failure(CodeCompileFailed, err.Error(), nil)

		return WrapExitError(ExitFailure, "failed to compile chart", logger.Annotate(err, "chart_file", path))
	}

	actors, err := config.BuildActors(registry)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to build actors", err)
	}

	log := logger.Get(ctx)

	engineOpts := []statechart.Option{
		statechart.WithLogger(log),
		statechart.WithObserver(statechart.Observers(
			tr,
			statechart.NewLogObserver(log),
			statechart.NewTracingObserver(ctx),
		)),
		statechart.WithQueue(queue.NewRing[statechart.Event](opts.QueueCapacity)),
	}

	if opts.RunOnTick {
		engineOpts = append(engineOpts, statechart.WithRunOnTick())
	}

	engine, err := statechart.New(chart, config.InitialState(), nil, engineOpts...)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to start engine", err)
	}

	if len(actors) > 0 {
		if err := engine.LinkActors(actors); err != nil {
			return WrapExitError(ExitFailure, "failed to link actors", err)
		}
	}

	log = logger.Get(logger.WithEngine(ctx, engine.ID().String(), chart.Name()))

	result := SimulateResult{
		Chart:       chart.Name(),
		Fingerprint: fingerprint(chart),
		Engine:      engine.ID().String(),
		Initial:     chart.StateName(engine.State()),
	}

	for i, s := range steps {
		if engine.Terminated() {
			break
		}

		if err := ctx.Err(); err != nil {
			return WrapExitError(ExitCommandError, "simulation interrupted", err)
		}

		tr.setStep(i + 1)
		result.Steps = append(result.Steps, s.raw)

		if s.ticks > 0 {
			for range s.ticks {
				engine.TickHook()
			}
		} else {
			engine.Dispatch(s.event, nil)
		}

		engine.Run()
	}

	tr.mu.Lock()
	result.Final = chart.StateName(engine.State())
	result.Terminated = tr.terminated
	result.Value = tr.value
	result.Dropped = tr.dropped
	result.Trail = tr.entries
	tr.mu.Unlock()

	log.Debug("simulation finished", "final", result.Final, "steps", len(result.Steps))

	if opts.Expect != "" && result.Final != opts.Expect {
		msg := fmt.Sprintf("ended in %s, expected %s", result.Final, opts.Expect)

		if formatter.json() {
			_ = formatter.Failure(CodeUnexpected, msg, result)
		} else {
			_ = formatter.Success(formatTrail(result))
			_ = formatter.Failure(CodeUnexpected, msg, nil)
		}

		return NewExitError(ExitFailure, msg)
	}

	if formatter.json() {
		return formatter.Success(result)
	}

	return formatter.Success(formatTrail(result))
}

func formatTrail(result SimulateResult) string {
	var sb strings.Builder

	sb.WriteString(Banner(result.Chart+"\n"+result.Fingerprint, DefaultBannerWidth, AlignCenter))

	step := -1
	advance := func(to int) {
		for step < to {
			step++

			if step == 0 {
				fmt.Fprintf(&sb, "[init] %s\n", result.Initial)
			} else {
				fmt.Fprintf(&sb, "[%d] %s\n", step, result.Steps[step-1])
			}
		}
	}

	for _, entry := range result.Trail {
		advance(entry.Step)
		fmt.Fprintf(&sb, "  %-10s %s\n", entry.Kind, entry.Detail)
	}

	advance(len(result.Steps))

	sb.WriteString(Divider(DefaultBannerWidth))
	fmt.Fprintf(&sb, "final: %s\n", result.Final)

	if result.Terminated {
		fmt.Fprintf(&sb, "terminated: %d\n", result.Value)
	}

	return sb.String()
}
