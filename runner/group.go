package runner

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alitto/pond/v2"
)

// Result is the outcome of one task run by a Group.
type Result struct {
	ID    string
	Value int
	Err   error
}

// Group runs tasks on a bounded worker pool. Each running task occupies a
// worker until it terminates or its context is done.
type Group struct {
	pool    pond.Pool
	mu      sync.Mutex
	pending []pond.Task
	results []Result
}

// NewGroup creates a group running at most maxConcurrency tasks at once.
func NewGroup(maxConcurrency int) *Group {
	return &Group{
		pool: pond.NewPool(maxConcurrency),
	}
}

// Go submits task to the pool.
func (g *Group) Go(ctx context.Context, task *Task) {
	submitted := g.pool.Submit(func() {
		value, err := task.Run(ctx)

		g.mu.Lock()
		defer g.mu.Unlock()

		g.results = append(g.results, Result{ID: task.ID(), Value: value, Err: err})
	})

	g.mu.Lock()
	defer g.mu.Unlock()

	g.pending = append(g.pending, submitted)
}

// Wait blocks until every submitted task has returned and reports their
// results in completion order.
func (g *Group) Wait() []Result {
	g.mu.Lock()
	pending := g.pending
	g.pending = nil
	g.mu.Unlock()

	for _, task := range pending {
		if err := task.Wait(); err != nil {
			slog.Error("statechart task panicked", "error", err)
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	results := g.results
	g.results = nil

	return results
}

// Stop waits for running tasks and releases the pool.
func (g *Group) Stop() {
	g.pool.StopAndWait()
}
