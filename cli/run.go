package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/amp-labs/amp-hsm/logger"
	"github.com/amp-labs/amp-hsm/runner"
	"github.com/amp-labs/amp-hsm/statechart"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const (
	defaultRunTimeout      = 5 * time.Second
	metricsShutdownTimeout = 2 * time.Second
	readHeaderTimeout      = 5 * time.Second
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	Instances   int
	Workers     int
	Interval    time.Duration
	Timeout     time.Duration
	MetricsAddr string
}

// InstanceResult is the outcome of one engine in the run command.
type InstanceResult struct {
	Engine     string `json:"engine"`
	Final      string `json:"final"`
	Terminated bool   `json:"terminated"`
	Value      int    `json:"value"`
	Dropped    uint64 `json:"dropped"`
	Error      string `json:"error,omitempty"`
}

// RunResult is the JSON payload of the run command.
type RunResult struct {
	Chart     string           `json:"chart"`
	Instances []InstanceResult `json:"instances"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run <chart.yaml> [event...]",
		Short: "Run chart instances on a worker pool in real time",
		Long: `Run one or more instances of a chart, each on its own task driven by a
real ticker. The events are dispatched to every instance up front. Each
instance runs until it terminates or the timeout expires.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, rootOpts, opts, args[0], args[1:])
		},
	}

	cmd.Flags().IntVarP(&opts.Instances, "instances", "n", 1, "number of engines to run")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "maximum engines running at once (default: instances)")
	cmd.Flags().DurationVar(&opts.Interval, "interval", runner.DefaultTickInterval, "tick period")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", defaultRunTimeout, "stop engines that have not terminated after this long")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")

	return cmd
}

func runRun(cmd *cobra.Command, rootOpts *RootOptions, opts *RunOptions, path string, events []string) error {
	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	log := logger.Get(cmd.Context())

	if opts.Instances < 1 {
		return NewExitError(ExitCommandError, "--instances must be positive")
	}

	workers := opts.Workers
	if workers < 1 {
		workers = opts.Instances
	}

	config, err := loadConfig(path)
	if err != nil {
		_ = formatter.Failure(CodeLoadFailed, err.Error(), nil)

		return err
	}

	ids := make([]statechart.EventID, 0, len(events))

	for _, name := range events {
		ev, ok := config.EventID(name)
		if !ok {
			_ = formatter.Failure(CodeBadStep, "unknown event "+name, nil)

			return NewExitError(ExitCommandError, fmt.Sprintf("unknown event %q", name))
		}

		ids = append(ids, ev)
	}

	registry, err := bindActions(config, func(e *statechart.Engine, name string) {
		log.Debug("action", "engine_id", e.ID().String(), "action", name)
	})
	if err != nil {
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

	if opts.MetricsAddr != "" {
		stop := serveMetrics(cmd.Context(), opts.MetricsAddr)
		defer stop()
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
	defer cancel()

	tasks := make(map[string]*runner.Task, opts.Instances)
	group := runner.NewGroup(workers)

	defer group.Stop()

	for range opts.Instances {
		task, err := runner.New(chart, config.InitialState(), nil,
			runner.WithTickInterval(opts.Interval),
			runner.WithLogger(log),
			runner.WithEngineOptions(statechart.WithObserver(statechart.Observers(
				statechart.NewLogObserver(log),
				statechart.MetricsObserver{},
				statechart.NewTracingObserver(ctx),
			))),
		)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to start engine", err)
		}

		if len(actors) > 0 {
			if err := linkActors(ctx, task, actors); err != nil {
				return err
			}
		}

		for _, ev := range ids {
			task.Dispatch(ev, nil)
		}

		tasks[task.ID()] = task
		group.Go(ctx, task)
	}

	result := RunResult{Chart: chart.Name()}
	failed := 0

	for _, r := range group.Wait() {
		task := tasks[r.ID]
		inst := InstanceResult{
			Engine:     r.ID,
			Final:      chart.StateName(task.State()),
			Terminated: r.Err == nil,
			Value:      r.Value,
			Dropped:    task.Dropped(),
		}

		if r.Err != nil {
			inst.Error = r.Err.Error()
			failed++
		}

		result.Instances = append(result.Instances, inst)
	}

	if formatter.json() {
		if failed > 0 {
			_ = formatter.Failure(CodeUnexpected, fmt.Sprintf("%d instance(s) did not terminate", failed), result)
		} else if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		_ = formatter.Success(formatRun(result))
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d instance(s) did not terminate", failed))
	}

	return nil
}

func linkActors(ctx context.Context, task *runner.Task, actors []statechart.Actor) error {
	var linkErr error

	if err := task.Do(ctx, func(e *statechart.Engine) {
		linkErr = e.LinkActors(actors)
	}); err != nil {
		return WrapExitError(ExitCommandError, "interrupted", err)
	}

	if linkErr != nil {
		return WrapExitError(ExitFailure, "failed to link actors", linkErr)
	}

	return nil
}

func formatRun(result RunResult) string {
	var sb strings.Builder

	sb.WriteString(Banner(fmt.Sprintf("%s x%d", result.Chart, len(result.Instances)), DefaultBannerWidth, AlignCenter))

	for _, inst := range result.Instances {
		fmt.Fprintf(&sb, "%s  %-12s", inst.Engine, inst.Final)

		switch {
		case inst.Error != "":
			fmt.Fprintf(&sb, " error: %s", inst.Error)
		default:
			fmt.Fprintf(&sb, " terminated: %d", inst.Value)
		}

		if inst.Dropped > 0 {
			fmt.Fprintf(&sb, " dropped: %d", inst.Dropped)
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

// serveMetrics exposes the default Prometheus registry until the returned
// function is called.
func serveMetrics(ctx context.Context, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Get(ctx).Error("metrics server failed", "addr", addr, "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsShutdownTimeout)
		defer cancel()

		_ = server.Shutdown(shutdownCtx)
	}
}
