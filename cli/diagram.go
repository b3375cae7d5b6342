package cli

import (
	"fmt"
	"os"

	"github.com/amp-labs/amp-hsm/logger"
	"github.com/amp-labs/amp-hsm/statechart/visualizer"
	"github.com/spf13/cobra"
)

const diagramFilePerms = 0o644

// DiagramOptions holds flags for the diagram command.
type DiagramOptions struct {
	Direction string
	NoEvents  bool
	NoTimers  bool
	Highlight []string
	Output    string
}

// DiagramResult is the JSON payload of the diagram command.
type DiagramResult struct {
	Chart       string `json:"chart"`
	Fingerprint string `json:"fingerprint"`
	Mermaid     string `json:"mermaid"`
}

// NewDiagramCommand creates the diagram command.
func NewDiagramCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiagramOptions{}

	cmd := &cobra.Command{
		Use:   "diagram <chart.yaml>",
		Short: "Render a chart as a Mermaid state diagram",
		Long: `Render a chart as a Mermaid state diagram.

Composite states become nested blocks entered through their default
substate. Action names in the chart do not need to be implemented.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagram(cmd, rootOpts, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Direction, "direction", "d", "TB", "layout direction (TB|LR|BT|RL)")
	cmd.Flags().BoolVar(&opts.NoEvents, "no-events", false, "omit event labels on transitions")
	cmd.Flags().BoolVar(&opts.NoTimers, "no-timers", false, "omit timed-event annotations")
	cmd.Flags().StringSliceVar(&opts.Highlight, "highlight", nil, "states to highlight")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the diagram to a file instead of stdout")

	return cmd
}

func runDiagram(cmd *cobra.Command, rootOpts *RootOptions, opts *DiagramOptions, path string) error {
	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

	config, err := loadConfig(path)
	if err != nil {
		_ = formatter.Failure(CodeLoadFailed, err.Error(), nil)

		return err
	}

	chart, err := config.CompileInert()
	if err != nil {
		_ = formatter.Failure(CodeCompileFailed, err.Error(), nil)

		return WrapExitError(ExitFailure, "failed to compile chart", logger.Annotate(err, "chart_file", path))
	}

	diagram, err := visualizer.GenerateMermaidWithOptions(chart, visualizer.DefaultOptions().
		WithDirection(opts.Direction).
		WithInitial(config.Initial).
		WithShowEvents(!opts.NoEvents).
		WithShowTimers(!opts.NoTimers).
		WithHighlightPath(opts.Highlight))
	if err != nil {
		return WrapExitError(ExitFailure, "failed to render chart", err)
	}

	logger.Get(cmd.Context()).Debug("rendered chart",
		"chart", chart.Name(), "fingerprint", fingerprint(chart), "bytes", len(diagram))

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(diagram), diagramFilePerms); err != nil {
			return WrapExitError(ExitCommandError, "failed to write diagram",
				logger.Annotate(err, "output", opts.Output))
		}

		if formatter.json() {
			return formatter.Success(DiagramResult{Chart: chart.Name(), Fingerprint: fingerprint(chart)})
		}

		_, err := fmt.Fprintf(formatter.Writer, "Wrote %s\n", opts.Output)

		return err
	}

	if formatter.json() {
		return formatter.Success(DiagramResult{
			Chart:       chart.Name(),
			Fingerprint: fingerprint(chart),
			Mermaid:     diagram,
		})
	}

	return formatter.Success(diagram)
}
