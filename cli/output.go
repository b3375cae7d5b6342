package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for hsmctl commands.
const (
	ExitSuccess      = 0 // command succeeded
	ExitFailure      = 1 // chart is invalid or the simulation did not reach its expectation
	ExitCommandError = 2 // bad arguments, unreadable files, unknown events
)

// Error codes reported in JSON output.
const (
	CodeLoadFailed    = "LOAD_FAILED"
	CodeCompileFailed = "COMPILE_FAILED"
	CodeInvalid       = "INVALID"
	CodeBadStep       = "BAD_STEP"
	CodeUnexpected    = "UNEXPECTED_STATE"
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError creates an ExitError around err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from err. Errors that are not an
// ExitError map to ExitFailure; nil maps to ExitSuccess.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return ExitFailure
}

// Response is the envelope for JSON output.
type Response struct {
	Status string         `json:"status"`
	Data   any            `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

// ResponseError describes a failure in JSON output.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OutputFormatter writes command results as text or JSON.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

func (f *OutputFormatter) json() bool {
	return f.Format == FormatJSON
}

// Success writes data. In text mode data is printed with fmt.
func (f *OutputFormatter) Success(data any) error {
	if f.json() {
		return f.encode(Response{Status: "ok", Data: data})
	}

	_, err := fmt.Fprint(f.Writer, data)

	return err
}

// Failure writes a failed result, with data attached in JSON mode.
func (f *OutputFormatter) Failure(code, message string, data any) error {
	if f.json() {
		return f.encode(Response{
			Status: "error",
			Data:   data,
			Error:  &ResponseError{Code: code, Message: message},
		})
	}

	_, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)

	return err
}

func (f *OutputFormatter) encode(resp Response) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")

	return encoder.Encode(resp)
}
