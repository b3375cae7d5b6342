// Package validator checks chart configurations for problems the compiler
// accepts but that are almost certainly mistakes.
package validator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/amp-labs/amp-hsm/statechart"
)

// ValidationResult contains the results of validating a chart config.
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// ValidationError represents a validation error with an optional fix.
type ValidationError struct {
	Code     string   // Error code like "UNREACHABLE_STATE"
	Message  string   // Human-readable error message
	Location Location // Where the error occurred
	Fix      *Fix     // Optional auto-fix
}

// ValidationWarning represents a non-critical issue.
type ValidationWarning struct {
	Code     string
	Message  string
	Location Location
	Fix      *Fix
}

// Location identifies where an issue occurred.
type Location struct {
	File       string // Config file path
	State      string // State name if applicable
	Transition int    // 1-based transition index, 0 if not applicable
}

// Validate runs the default rules.
func Validate(config *statechart.Config) ValidationResult {
	return ValidateWithRules(config, DefaultRules())
}

// ValidateFile loads a config from a file and validates it.
func ValidateFile(path string) (ValidationResult, error) {
	return ValidateFileWithOptions(path, false)
}

// ValidateFileStrict loads a config from a file and validates it in strict mode.
func ValidateFileStrict(path string) (ValidationResult, error) {
	return ValidateFileWithOptions(path, true)
}

// ValidateFileWithOptions loads a config from a file and validates it with options.
func ValidateFileWithOptions(path string, strict bool) (ValidationResult, error) {
	config, err := statechart.LoadConfig(path)
	if err != nil {
		return ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{
					Code:     "CONFIG_LOAD_FAILED",
					Message:  fmt.Sprintf("Failed to load config: %v", err),
					Location: Location{File: path},
				},
			},
		}, err
	}

	var result ValidationResult
	if strict {
		result = ValidateWithRulesStrict(config, DefaultRules())
	} else {
		result = Validate(config)
	}

	for i := range result.Errors {
		if result.Errors[i].Location.File == "" {
			result.Errors[i].Location.File = path
		}
	}

	for i := range result.Warnings {
		if result.Warnings[i].Location.File == "" {
			result.Warnings[i].Location.File = path
		}
	}

	return result, nil
}

// ValidateWithRules validates using custom rules. Rules only run when the
// config compiles; otherwise the compile error is the single result.
func ValidateWithRules(config *statechart.Config, rules []Rule) ValidationResult {
	result := ValidationResult{Valid: true}

	if config == nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Code:    "CONFIG_NIL",
			Message: "config is nil",
		})

		return result
	}

	chart, err := config.CompileInert()
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{
			Code:    "CONFIG_INVALID",
			Message: err.Error(),
		})

		return result
	}

	for _, rule := range slices.Concat(rules, RegisteredRules) {
		ruleResult := rule.Check(config, chart)
		result.Errors = append(result.Errors, ruleResult.Errors...)
		result.Warnings = append(result.Warnings, ruleResult.Warnings...)
	}

	if len(result.Errors) > 0 {
		result.Valid = false
	}

	return result
}

// ValidateWithRulesStrict validates with strict mode (treats warnings as errors).
func ValidateWithRulesStrict(config *statechart.Config, rules []Rule) ValidationResult {
	result := ValidateWithRules(config, rules)

	for _, warning := range result.Warnings {
		result.Errors = append(result.Errors, ValidationError(warning))
	}

	result.Warnings = nil

	if len(result.Errors) > 0 {
		result.Valid = false
	}

	return result
}

// HasErrors returns true if the result has any errors.
func (r ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if the result has any warnings.
func (r ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Fixes returns every fix attached to an error or warning.
func (r ValidationResult) Fixes() []*Fix {
	var fixes []*Fix

	for _, e := range r.Errors {
		if e.Fix != nil {
			fixes = append(fixes, e.Fix)
		}
	}

	for _, w := range r.Warnings {
		if w.Fix != nil {
			fixes = append(fixes, w.Fix)
		}
	}

	return fixes
}

// String returns a human-readable summary of validation results.
func (r ValidationResult) String() string {
	var sb strings.Builder

	if r.Valid {
		sb.WriteString("✓ Configuration is valid\n")
	} else {
		fmt.Fprintf(&sb, "✗ Configuration has %d error(s)\n", len(r.Errors))

		for _, err := range r.Errors {
			writeIssue(&sb, err.Code, err.Message, err.Location, err.Fix)
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(&sb, "⚠ %d warning(s):\n", len(r.Warnings))

		for _, warn := range r.Warnings {
			writeIssue(&sb, warn.Code, warn.Message, warn.Location, warn.Fix)
		}
	}

	return sb.String()
}

func writeIssue(sb *strings.Builder, code, message string, loc Location, fix *Fix) {
	fmt.Fprintf(sb, "  [%s] %s", code, message)

	if loc.State != "" {
		fmt.Fprintf(sb, " (state: %s)", loc.State)
	}

	if loc.Transition > 0 {
		fmt.Fprintf(sb, " (transition: %d)", loc.Transition)
	}

	sb.WriteString("\n")

	if fix != nil {
		fmt.Fprintf(sb, "    Fix: %s\n", fix.Description)
	}
}
