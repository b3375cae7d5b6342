package queue

import (
	"sync"

	"go.uber.org/atomic"
)

// Sync is a Ring guarded by a mutex, with a wake-up channel for the consumer.
// Producers may push from any goroutine.
type Sync[T any] struct {
	mu      sync.Mutex
	ring    *Ring[T]
	ready   chan struct{}
	pushed  atomic.Uint64
	dropped atomic.Uint64
}

// NewSync creates a synchronized queue holding up to capacity elements.
func NewSync[T any](capacity int) *Sync[T] {
	return &Sync[T]{
		ring:  NewRing[T](capacity),
		ready: make(chan struct{}, 1),
	}
}

// PushBack appends v at the tail. It never blocks and returns false if the
// queue is full.
func (q *Sync[T]) PushBack(v T) bool {
	q.mu.Lock()
	ok := q.ring.PushBack(v)
	q.mu.Unlock()

	return q.accepted(ok)
}

// PushFront inserts v at the head. It never blocks and returns false if the
// queue is full.
func (q *Sync[T]) PushFront(v T) bool {
	q.mu.Lock()
	ok := q.ring.PushFront(v)
	q.mu.Unlock()

	return q.accepted(ok)
}

func (q *Sync[T]) accepted(ok bool) bool {
	if !ok {
		q.dropped.Inc()

		return false
	}

	q.pushed.Inc()

	// Buffer of 1 coalesces wake-ups.
	select {
	case q.ready <- struct{}{}:
	default:
	}

	return true
}

// Pop removes and returns the head element without blocking.
func (q *Sync[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.ring.Pop()
}

// Len returns the number of queued elements.
func (q *Sync[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.ring.Len()
}

// Cap returns the queue capacity.
func (q *Sync[T]) Cap() int {
	return q.ring.Cap()
}

// Flush discards every queued element.
func (q *Sync[T]) Flush() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.ring.Flush()
}

// Ready is signalled after a successful push. A single signal may stand for
// several pushes, so the consumer should drain until Pop reports empty.
func (q *Sync[T]) Ready() <-chan struct{} {
	return q.ready
}

// Pushed returns how many elements were accepted.
func (q *Sync[T]) Pushed() uint64 {
	return q.pushed.Load()
}

// Dropped returns how many pushes were rejected because the queue was full.
func (q *Sync[T]) Dropped() uint64 {
	return q.dropped.Load()
}
