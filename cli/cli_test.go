package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

const (
	doorChart   = "testdata/door.yaml"
	messyChart  = "testdata/messy.yaml"
	brokenChart = "testdata/broken.yaml"
)

// execute runs cmd with args and returns stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(t.Context())

	return stdout.String(), stderr.String(), err
}

func textOpts() *RootOptions {
	return &RootOptions{Format: FormatText}
}

func jsonOpts() *RootOptions {
	return &RootOptions{Format: FormatJSON}
}
