package cli

import (
	"fmt"
	"os"

	"github.com/amp-labs/amp-hsm/logger"
	"github.com/amp-labs/amp-hsm/statechart/validator"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	Strict bool
	Fix    bool
	Yes    bool
	Output string
}

// Issue is one validation finding in JSON output.
type Issue struct {
	Severity   string `json:"severity"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	State      string `json:"state,omitempty"`
	Transition int    `json:"transition,omitempty"`
	Fix        string `json:"fix,omitempty"`
}

// ValidateResult is the JSON payload of the validate command.
type ValidateResult struct {
	File    string   `json:"file"`
	Valid   bool     `json:"valid"`
	Issues  []Issue  `json:"issues,omitempty"`
	Applied []string `json:"applied,omitempty"`
	Fixed   string   `json:"fixed,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <chart.yaml>",
		Short: "Check a chart for errors and likely mistakes",
		Long: `Check a chart for errors and likely mistakes.

Errors make the chart unusable. Warnings flag constructs the compiler
accepts but that are almost certainly wrong, such as unreachable states
or transitions shadowed by an earlier one. With --fix the automatic fixes
are applied and the corrected chart is written out. An existing --output
file is only replaced after confirmation when stdin is a terminal, or
with --yes.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, rootOpts, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat warnings as errors")
	cmd.Flags().BoolVar(&opts.Fix, "fix", false, "apply automatic fixes")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "where --fix writes the corrected chart (default stdout)")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "overwrite --output without asking")

	return cmd
}

func runValidate(cmd *cobra.Command, rootOpts *RootOptions, opts *ValidateOptions, path string) error {
	formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	log := logger.Get(cmd.Context())

	result, err := validator.ValidateFileWithOptions(path, opts.Strict)
	if err != nil {
		_ = formatter.Failure(CodeLoadFailed, err.Error(), nil)

		return WrapExitError(ExitCommandError, "failed to load chart", logger.Annotate(err, "chart_file", path))
	}

	out := ValidateResult{File: path}

	if opts.Fix {
		var fixed []byte

		out.Applied, result, fixed, err = fixFile(path, opts.Strict)
		if err != nil {
			return err
		}

		log.Info("applied fixes", "chart_file", path, "count", len(out.Applied))

		if formatter.json() && opts.Output == "" {
			out.Fixed = string(fixed)
		} else if err := writeFixed(cmd, opts, fixed, PromptConfirm); err != nil {
			return err
		}
	}

	out.Valid = result.Valid
	out.Issues = issues(result)

	if formatter.json() {
		if result.Valid {
			return formatter.Success(out)
		}

		_ = formatter.Failure(CodeInvalid, fmt.Sprintf("%d error(s)", len(result.Errors)), out)
	} else {
		// With --fix and no output file stdout carries the YAML.
		w := formatter.Writer
		if opts.Fix && opts.Output == "" {
			w = cmd.ErrOrStderr()
		}

		for _, applied := range out.Applied {
			_, _ = fmt.Fprintf(w, "Applied: %s\n", applied)
		}

		_, _ = fmt.Fprint(w, result.String())
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}

	return nil
}

func fixFile(path string, strict bool) ([]string, validator.ValidationResult, []byte, error) {
	config, err := loadConfig(path)
	if err != nil {
		return nil, validator.ValidationResult{}, nil, err
	}

	applied, result := validator.AutoFix(config)
	if strict {
		result = validator.ValidateWithRulesStrict(config, validator.DefaultRules())
	}

	fixed, err := yaml.Marshal(config)
	if err != nil {
		return nil, validator.ValidationResult{}, nil, WrapExitError(ExitCommandError, "failed to encode chart", err)
	}

	return applied, result, fixed, nil
}

func writeFixed(cmd *cobra.Command, opts *ValidateOptions, fixed []byte, ask Asker) error {
	output := opts.Output
	if output == "" {
		_, err := cmd.OutOrStdout().Write(fixed)

		return err
	}

	if !opts.Yes {
		ok, err := confirmOverwrite(output, cmd.InOrStdin(), cmd.ErrOrStderr(), ask)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to confirm overwrite", err)
		}

		if !ok {
			return NewExitError(ExitCommandError, fmt.Sprintf("not overwriting %s", output))
		}
	}

	if err := os.WriteFile(output, fixed, diagramFilePerms); err != nil {
		return WrapExitError(ExitCommandError, "failed to write chart", logger.Annotate(err, "output", output))
	}

	return nil
}

func issues(result validator.ValidationResult) []Issue {
	out := make([]Issue, 0, len(result.Errors)+len(result.Warnings))

	for _, e := range result.Errors {
		out = append(out, newIssue("error", e.Code, e.Message, e.Location, e.Fix))
	}

	for _, w := range result.Warnings {
		out = append(out, newIssue("warning", w.Code, w.Message, w.Location, w.Fix))
	}

	return out
}

func newIssue(severity, code, message string, loc validator.Location, fix *validator.Fix) Issue {
	issue := Issue{
		Severity:   severity,
		Code:       code,
		Message:    message,
		State:      loc.State,
		Transition: loc.Transition,
	}

	if fix != nil {
		issue.Fix = fix.Description
	}

	return issue
}
