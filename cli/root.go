// Package cli implements the hsmctl command tree.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/amp-labs/amp-hsm/logger"
	"github.com/amp-labs/amp-hsm/shutdown"
	"github.com/amp-labs/amp-hsm/telemetry"
	"github.com/spf13/cobra"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Subsystem names the CLI in logs and traces.
const Subsystem = "hsmctl"

// ValidFormats lists the accepted --format values.
var ValidFormats = []string{FormatText, FormatJSON} //nolint:gochecknoglobals

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose       bool
	Format        string
	LogLevel      string
	LogJSON       bool
	TraceEndpoint string
}

// NewRootCommand creates the hsmctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "hsmctl",
		Short: "Inspect and exercise hierarchical state charts",
		Long: `hsmctl loads state charts described in YAML and lets you draw them,
lint them and drive them with events and timer ticks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log at debug level")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (text|json)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "minimum log level (debug|info|warn|error)")
	cmd.PersistentFlags().BoolVar(&opts.LogJSON, "log-json", false, "emit logs as JSON")
	cmd.PersistentFlags().StringVar(&opts.TraceEndpoint, "trace-endpoint", "",
		"OTLP/HTTP endpoint for engine spans (default $"+telemetry.EndpointEnv+")")

	cmd.AddCommand(NewDiagramCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewSimulateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}

func (o *RootOptions) setup(cmd *cobra.Command) error {
	if !slices.Contains(ValidFormats, o.Format) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	level, err := logger.ParseLevel(o.LogLevel)
	if err != nil {
		return WrapExitError(ExitCommandError, "bad --log-level", err)
	}

	if o.Verbose {
		level = min(level, slog.LevelDebug)
	}

	// Logs go to stderr so JSON results on stdout stay parseable.
	logger.ConfigureLoggingWithOptions(logger.Options{
		Subsystem:   Subsystem,
		JSON:        o.LogJSON,
		MinLevel:    level,
		LegacyLevel: level,
		Output:      cmd.ErrOrStderr(),
	})

	config := telemetry.DefaultConfig(Subsystem)
	if o.TraceEndpoint != "" {
		config.Endpoint = o.TraceEndpoint
	}

	config.Enabled = config.Endpoint != ""

	if err := telemetry.Initialize(cmd.Context(), config); err != nil {
		return WrapExitError(ExitCommandError, "failed to initialize tracing", err)
	}

	shutdown.BeforeShutdown(func(ctx context.Context) {
		if err := telemetry.Shutdown(ctx); err != nil {
			logger.Get(ctx).Warn("failed to flush traces", "error", err)
		}
	})

	return nil
}
