package visualizer

import (
	"testing"

	"github.com/amp-labs/amp-hsm/statechart"
	sctest "github.com/amp-labs/amp-hsm/statechart/testing"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()

	return goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestGenerateMermaidFromFile(t *testing.T) {
	t.Parallel()

	out, err := GenerateMermaidFromFile("../testdata/blinker.yaml")
	require.NoError(t, err)

	newGoldie(t).Assert(t, "blinker", []byte(out))
}

func TestGenerateMermaidNested(t *testing.T) {
	t.Parallel()

	chart := sctest.Nested(t, sctest.NewRecorder())

	out, err := GenerateMermaidWithOptions(chart,
		DefaultOptions().WithHighlightPath([]string{"A", "A2", "missing"}))
	require.NoError(t, err)

	newGoldie(t).Assert(t, "nested", []byte(out))
}

func TestGenerateMermaidOptions(t *testing.T) {
	t.Parallel()

	chart := sctest.Blinker(t, sctest.NewRecorder())

	out, err := GenerateMermaidWithOptions(chart, DefaultOptions().
		WithDirection("LR").
		WithInitial("ON").
		WithShowEvents(false).
		WithShowTimers(false))
	require.NoError(t, err)

	assert.Contains(t, out, "direction LR")
	assert.Contains(t, out, "[*] --> ON\n")
	assert.Contains(t, out, "OFF --> ON\n")
	assert.NotContains(t, out, ": TOGGLE")
	assert.NotContains(t, out, "classDef")

	out, err = GenerateMermaidWithOptions(chart, Options{})
	require.NoError(t, err)
	assert.NotContains(t, out, "direction")
	assert.Contains(t, out, "[*] --> ROOT")
}

func TestGenerateMermaidErrors(t *testing.T) {
	t.Parallel()

	_, err := GenerateMermaid(nil)
	require.ErrorIs(t, err, ErrChartNil)

	chart := sctest.Blinker(t, sctest.NewRecorder())

	_, err = GenerateMermaidWithOptions(chart, DefaultOptions().WithInitial("nowhere"))
	require.ErrorIs(t, err, ErrUnknownInitial)

	_, err = GenerateMermaidFromFile("missing.yaml")
	require.Error(t, err)

	out, err := GenerateMermaid(chart)
	require.NoError(t, err)
	assert.Contains(t, out, "stateDiagram-v2")

	single, err := statechart.NewBuilder("single").State(1, "only").Transition(1, 1, 1).Build()
	require.NoError(t, err)

	out, err = GenerateMermaid(single)
	require.NoError(t, err)
	assert.Contains(t, out, "    only\n")
	assert.Contains(t, out, "only --> only: 1")
}
