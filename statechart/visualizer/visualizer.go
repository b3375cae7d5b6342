// Package visualizer renders compiled charts as Mermaid state diagrams.
package visualizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amp-labs/amp-hsm/statechart"
)

// Visualizer errors.
var (
	ErrChartNil       = errors.New("chart cannot be nil")
	ErrUnknownInitial = errors.New("initial state is not in the chart")
)

const indentUnit = "    "

// GenerateMermaid converts a Chart to a Mermaid state diagram.
func GenerateMermaid(chart *statechart.Chart) (string, error) {
	return GenerateMermaidWithOptions(chart, DefaultOptions())
}

// GenerateMermaidFromFile loads a YAML config and renders it, pointing the
// initial marker at the config's initial state.
func GenerateMermaidFromFile(path string) (string, error) {
	config, err := statechart.LoadConfig(path)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	chart, err := config.CompileInert()
	if err != nil {
		return "", fmt.Errorf("failed to compile config: %w", err)
	}

	return GenerateMermaidWithOptions(chart, DefaultOptions().WithInitial(config.Initial))
}

// GenerateMermaidWithOptions generates a Mermaid diagram with custom options.
// Composite states are rendered as nested blocks with their default substate
// as the block's initial marker; transitions follow in table order.
func GenerateMermaidWithOptions(chart *statechart.Chart, opts Options) (string, error) {
	if chart == nil {
		return "", ErrChartNil
	}

	initial := chart.Root()

	if opts.Initial != "" {
		id, ok := chart.StateByName(opts.Initial)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownInitial, opts.Initial)
		}

		initial = id
	}

	var sb strings.Builder

	sb.WriteString("```mermaid\n")
	sb.WriteString("stateDiagram-v2\n")

	if opts.Direction != "" {
		fmt.Fprintf(&sb, "%sdirection %s\n", indentUnit, opts.Direction)
	}

	fmt.Fprintf(&sb, "%s[*] --> %s\n", indentUnit, chart.StateName(initial))

	writeState(&sb, chart, chart.Root(), 1, opts)

	for _, t := range chart.Transitions() {
		label := ""
		if opts.ShowEvents {
			label = ": " + chart.EventName(t.Event)
		}

		fmt.Fprintf(&sb, "%s%s --> %s%s\n", indentUnit,
			chart.StateName(t.Source), chart.StateName(t.Target), label)
	}

	if len(opts.HighlightPath) > 0 {
		sb.WriteString("\n")

		for _, name := range opts.HighlightPath {
			if _, ok := chart.StateByName(name); ok {
				fmt.Fprintf(&sb, "%sclass %s highlighted\n", indentUnit, name)
			}
		}

		fmt.Fprintf(&sb, "%sclassDef highlighted fill:#fff9c4,stroke:#f57f17,stroke-width:3px\n", indentUnit)
	}

	sb.WriteString("```\n")

	return sb.String(), nil
}

func writeState(sb *strings.Builder, chart *statechart.Chart, id statechart.StateID, depth int, opts Options) {
	indent := strings.Repeat(indentUnit, depth)
	name := chart.StateName(id)

	if opts.ShowTimers {
		if period := chart.Period(id); period > 0 {
			fmt.Fprintf(sb, "%s%s: %s (timeout %d)\n", indent, name, name, period)
		}
	}

	children := chart.Children(id)
	if len(children) == 0 {
		if !opts.ShowTimers || chart.Period(id) == 0 {
			fmt.Fprintf(sb, "%s%s\n", indent, name)
		}

		return
	}

	fmt.Fprintf(sb, "%sstate %s {\n", indent, name)

	if def := chart.DefaultSubstate(id); def != statechart.StateNone {
		fmt.Fprintf(sb, "%s%s[*] --> %s\n", indent, indentUnit, chart.StateName(def))
	}

	for _, child := range children {
		writeState(sb, chart, child, depth+1, opts)
	}

	fmt.Fprintf(sb, "%s}\n", indent)
}
