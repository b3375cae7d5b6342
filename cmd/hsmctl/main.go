// Command hsmctl draws, lints and drives hierarchical state charts.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/amp-labs/amp-hsm/cli"
	"github.com/amp-labs/amp-hsm/logger"
	"github.com/amp-labs/amp-hsm/shutdown"
)

const flushTimeout = 5 * time.Second

func main() {
	// Replaced by the root command's flags once they are parsed.
	logger.ConfigureLoggingWithOptions(logger.Options{
		Subsystem: cli.Subsystem,
		MinLevel:  slog.LevelInfo,
		Output:    os.Stderr,
	})

	ctx := shutdown.SetupHandler(context.Background())

	err := cli.NewRootCommand().ExecuteContext(ctx)

	flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	shutdown.RunHooks(flushCtx)
	cancel()

	if err != nil {
		slog.Error("hsmctl failed", "error", err)
		os.Exit(cli.GetExitCode(err))
	}
}
