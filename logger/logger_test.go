package logger

import (
	"bytes"
	"errors"
	"log"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestLogger(t *testing.T) { //nolint:paralleltest
	var buf bytes.Buffer

	ConfigureLoggingWithOptions(Options{
		Subsystem: "hsmctl",
		Output:    &buf,
	})

	Get().Info("default subsystem")
	assert.Contains(t, buf.String(), "subsystem=hsmctl")

	buf.Reset()
	Get(WithSubsystem(t.Context(), "runner")).Info("overridden")
	assert.Contains(t, buf.String(), "subsystem=runner")

	buf.Reset()
	ctx := WithEngine(t.Context(), "e-1", "blinker")
	Get(ctx).Info("engine scoped")
	assert.Contains(t, buf.String(), "engine_id=e-1")
	assert.Contains(t, buf.String(), "chart=blinker")

	buf.Reset()
	Get(WithMuted(ctx, true)).Error("muted")
	assert.Empty(t, buf.String())

	buf.Reset()
	Get(nil, ctx).Info("first non-nil context wins") //nolint:staticcheck
	assert.Contains(t, buf.String(), "engine_id=e-1")
}

func TestLegacy(t *testing.T) { //nolint:paralleltest
	var buf bytes.Buffer

	ConfigureLoggingWithOptions(Options{
		Subsystem:   "test",
		JSON:        true,
		MinLevel:    slog.LevelDebug,
		LegacyLevel: slog.LevelInfo,
		Output:      &buf,
	})

	log.Println("legacy")
	assert.Contains(t, buf.String(), `"msg":"legacy"`)

	ConfigureLoggingWithOptions(Options{Subsystem: "test", Output: os.Stdout})
}

func TestAnnotate(t *testing.T) { //nolint:paralleltest
	var buf bytes.Buffer

	ConfigureLoggingWithOptions(Options{Subsystem: "test", Output: &buf})

	err := Annotate(errBoom, "config", "blinker.yaml", "state", "OFF")
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, "boom", err.Error())
	assert.Len(t, Attrs(err), 2)

	Get().Error("compile failed", "error", err)
	assert.Contains(t, buf.String(), "error=boom")
	assert.Contains(t, buf.String(), "config=blinker.yaml")
	assert.Contains(t, buf.String(), "state=OFF")

	buf.Reset()
	Get().Error("plain", "error", errBoom)
	assert.Contains(t, buf.String(), "error=boom")

	require.NoError(t, Annotate(nil, "k", "v"))
	assert.Nil(t, Attrs(errBoom))

	ConfigureLoggingWithOptions(Options{Subsystem: "test", Output: os.Stdout})
}

func TestParse(t *testing.T) {
	t.Parallel()

	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("loud")
	require.ErrorIs(t, err, ErrInvalidLogLevel)

	out, err := ParseOutput("stderr")
	require.NoError(t, err)
	assert.Equal(t, os.Stderr, out)

	_, err = ParseOutput("syslog")
	require.ErrorIs(t, err, ErrInvalidLogOutput)
}
