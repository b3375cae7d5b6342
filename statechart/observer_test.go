package statechart_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/amp-labs/amp-hsm/queue"
	"github.com/amp-labs/amp-hsm/statechart"
	sctest "github.com/amp-labs/amp-hsm/statechart/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObserversFanOut(t *testing.T) {
	t.Parallel()

	first := sctest.NewRecorder()
	second := sctest.NewRecorder()

	chart := sctest.Blinker(t, sctest.NewRecorder())
	engine, err := statechart.New(chart, sctest.BlinkOff, nil,
		statechart.WithObserver(statechart.Observers(first, nil, second)))
	require.NoError(t, err)

	engine.Dispatch(sctest.EventOn, nil)
	engine.Run()

	assert.Len(t, first.Transitions(), 1)
	assert.Equal(t, first.Transitions(), second.Transitions())
}

func TestLogObserver(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	chart := sctest.Blinker(t, sctest.NewRecorder())
	engine, err := statechart.New(chart, sctest.BlinkOff, nil,
		statechart.WithQueue(queue.NewRing[statechart.Event](1)),
		statechart.WithObserver(statechart.NewLogObserver(logger)))
	require.NoError(t, err)

	engine.Dispatch(sctest.EventOn, nil)
	engine.Dispatch(sctest.EventOff, nil)
	engine.Run()
	engine.Dispatch(sctest.EventOn, nil)
	engine.Run()
	engine.Terminate(2)

	out := buf.String()
	assert.Contains(t, out, "Transition executed")
	assert.Contains(t, out, "from=OFF")
	assert.Contains(t, out, "to=ON")
	assert.Contains(t, out, "Event queue full, dropping event")
	assert.Contains(t, out, "Event discarded")
	assert.Contains(t, out, "Engine terminated")
	assert.Contains(t, out, "value=2")
	assert.Contains(t, out, "engine_id="+engine.ID().String())
}

// Note: Cannot use t.Parallel() because this test modifies the global OTEL tracer provider.
//
//nolint:paralleltest // Test modifies global OTEL tracer provider
func TestTracingObserver(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	oldProvider := otel.GetTracerProvider()

	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(oldProvider) })

	rec := sctest.NewRecorder()
	chart, err := sctest.BlinkerBuilder(rec).
		Transition(sctest.BlinkOn, statechart.EventTimeout, sctest.BlinkOff).
		Build()
	require.NoError(t, err)

	engine, err := statechart.New(chart, sctest.BlinkOff, nil,
		statechart.WithObserver(statechart.NewTracingObserver(context.Background())))
	require.NoError(t, err)
	require.NoError(t, engine.SetTimedEvent(sctest.BlinkOn, 1))

	engine.Dispatch(sctest.EventToggle, nil)
	engine.Dispatch(sctest.EventOn, nil)
	engine.Run()
	engine.TickHook()
	engine.Run()
	engine.Terminate(5)

	var names []string

	for _, span := range exporter.GetSpans() {
		names = append(names, span.Name)
	}

	assert.Equal(t, []string{
		"statechart.transition",
		"statechart.unhandled",
		"statechart.timeout",
		"statechart.transition",
		"statechart.terminate",
	}, names)

	attrs := make(map[string]any)
	for _, attr := range exporter.GetSpans()[0].Attributes {
		attrs[string(attr.Key)] = attr.Value.AsInterface()
	}

	assert.Equal(t, "blinker", attrs["chart"])
	assert.Equal(t, "OFF", attrs["from"])
	assert.Equal(t, "TOGGLE", attrs["event"])
	assert.Equal(t, engine.ID().String(), attrs["engine_id"])
}
