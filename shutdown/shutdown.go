// Package shutdown ties SIGINT/SIGTERM to a context and runs cleanup hooks
// exactly once, newest first.
package shutdown

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var (
	mut     sync.Mutex                  //nolint:gochecknoglobals
	hooks   []func(ctx context.Context) //nolint:gochecknoglobals
	channel chan os.Signal              //nolint:gochecknoglobals
	cancel  context.CancelFunc          //nolint:gochecknoglobals
)

// BeforeShutdown registers h to run from RunHooks.
func BeforeShutdown(h func(ctx context.Context)) {
	mut.Lock()
	defer mut.Unlock()

	hooks = append(hooks, h)
}

// SetupHandler returns a context derived from parent that is canceled on
// SIGINT, SIGTERM or a call to Shutdown.
func SetupHandler(parent context.Context) context.Context {
	ctx, cncl := context.WithCancel(parent)
	sigs := make(chan os.Signal, 1)

	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	mut.Lock()
	channel = sigs
	cancel = cncl
	mut.Unlock()

	go func() {
		select {
		case sig := <-sigs:
			slog.Warn("Received " + sig.String() + ", shutting down...")
		case <-ctx.Done():
		}

		signal.Stop(sigs)

		mut.Lock()
		if channel == sigs {
			channel = nil
		}
		mut.Unlock()

		cncl()
	}()

	return ctx
}

// Shutdown cancels the context returned by SetupHandler.
func Shutdown() {
	mut.Lock()
	cncl := cancel
	mut.Unlock()

	if cncl != nil {
		cncl()
	}
}

// RunHooks runs the registered hooks newest first and forgets them. A second
// call runs nothing.
func RunHooks(ctx context.Context) {
	mut.Lock()
	pending := hooks
	hooks = nil
	mut.Unlock()

	for i := len(pending) - 1; i >= 0; i-- {
		pending[i](ctx)
	}
}
