package cli

import (
	"encoding/json"
	"testing"

	"github.com/amp-labs/amp-hsm/shutdown"
	"github.com/amp-labs/amp-hsm/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandStructure(t *testing.T) {
	t.Parallel()

	cmd := NewRootCommand()

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	assert.ElementsMatch(t, []string{"diagram", "validate", "simulate", "run"}, names)

	for _, flag := range []string{"verbose", "format", "log-level", "log-json", "trace-endpoint"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

//nolint:paralleltest // Test reconfigures the global slog default
func TestRootCommandJSON(t *testing.T) {
	t.Setenv(telemetry.EndpointEnv, "")
	t.Cleanup(func() { shutdown.RunHooks(t.Context()) })

	out, stderr, err := execute(t, NewRootCommand(), "--format", "json", "--log-json", "-v", "validate", doorChart)
	require.NoError(t, err)

	var resp validateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Valid)

	// Debug logs land on stderr as JSON, never on stdout.
	assert.NotContains(t, out, `"level"`)
	assert.Contains(t, stderr, `"msg":"OpenTelemetry tracing is disabled"`)
}

//nolint:paralleltest // Test reconfigures the global slog default
func TestRootCommandBadFlags(t *testing.T) {
	t.Setenv(telemetry.EndpointEnv, "")

	_, _, err := execute(t, NewRootCommand(), "--format", "xml", "validate", doorChart)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)

	_, _, err = execute(t, NewRootCommand(), "--log-level", "loud", "validate", doorChart)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

//nolint:paralleltest // Test reconfigures the global slog default
func TestRootCommandSimulateLogs(t *testing.T) {
	t.Setenv(telemetry.EndpointEnv, "")
	t.Cleanup(func() { shutdown.RunHooks(t.Context()) })

	_, stderr, err := execute(t, NewRootCommand(), "--log-level", "debug", "simulate", doorChart, "lock")
	require.NoError(t, err)

	assert.Contains(t, stderr, "Transition executed")
	assert.Contains(t, stderr, "subsystem=hsmctl")
}
