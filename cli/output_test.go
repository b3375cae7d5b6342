package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

func TestGetExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errBoom))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitCommandError,
		GetExitCode(fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "inner", errBoom))))
}

func TestExitErrorMessage(t *testing.T) {
	t.Parallel()

	err := WrapExitError(ExitFailure, "failed to load chart", errBoom)

	assert.Equal(t, "failed to load chart: boom", err.Error())
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, "bad", NewExitError(ExitFailure, "bad").Error())
}

func TestOutputFormatterText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	f := &OutputFormatter{Format: FormatText, Writer: &buf}

	assert.NoError(t, f.Success("hello\n"))
	assert.NoError(t, f.Failure("CODE", "went wrong", map[string]int{"ignored": 1}))

	assert.Equal(t, "hello\nError [CODE]: went wrong\n", buf.String())
}

func TestOutputFormatterJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	f := &OutputFormatter{Format: FormatJSON, Writer: &buf}

	assert.NoError(t, f.Failure("CODE", "went wrong", map[string]int{"n": 1}))
	assert.JSONEq(t, `{
		"status": "error",
		"data": {"n": 1},
		"error": {"code": "CODE", "message": "went wrong"}
	}`, buf.String())
}
