package cli

import (
	"fmt"

	"github.com/amp-labs/amp-hsm/logger"
	"github.com/amp-labs/amp-hsm/statechart"
)

// loadConfig reads a chart config, mapping failures to ExitCommandError.
func loadConfig(path string) (*statechart.Config, error) {
	config, err := statechart.LoadConfig(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load chart",
			logger.Annotate(err, "chart_file", path))
	}

	return config, nil
}

func fingerprint(chart *statechart.Chart) string {
	return fmt.Sprintf("%016x", chart.Fingerprint())
}
