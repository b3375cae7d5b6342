package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/amp-labs/amp-hsm/statechart"
)

const terminatePrefix = "terminate:"

// bindActions registers every action the config names. Actions run record;
// "terminate:N" additionally terminates the engine with N.
func bindActions(config *statechart.Config, record func(e *statechart.Engine, name string)) (*statechart.ActionRegistry, error) {
	registry := statechart.NewActionRegistry()

	for _, name := range config.ActionNames() {
		recordName := func(e *statechart.Engine, _ any) { record(e, name) }

		n, ok := strings.CutPrefix(name, terminatePrefix)
		if !ok {
			registry.Register(name, recordName)

			continue
		}

		value, err := strconv.Atoi(n)
		if err != nil {
			return nil, fmt.Errorf("bad terminate value in action %q", name)
		}

		terminate := statechart.TerminateWith(value)
		registry.Register(name, func(e *statechart.Engine, data any) {
			recordName(e, data)
			terminate(e, data)
		})
	}

	return registry, nil
}
