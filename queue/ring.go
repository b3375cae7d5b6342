// Package queue provides bounded FIFO queues with a head-priority insert, the
// event queue contract required by the statechart engine.
//
// Ring is for a single context (a cooperative loop that both produces and
// consumes). Sync may be fed from any number of goroutines while one consumer
// drains it.
package queue

// Ring is a fixed-capacity circular FIFO. It is not safe for concurrent use.
// Pushing onto a full ring drops the new element; nothing already queued is
// overwritten.
type Ring[T any] struct {
	buf     []T
	head    int
	count   int
	dropped uint64
}

// NewRing creates a ring holding up to capacity elements (at least one).
func NewRing[T any](capacity int) *Ring[T] {
	return &Ring[T]{buf: make([]T, max(capacity, 1))}
}

// PushBack appends v at the tail. It returns false if the ring is full.
func (r *Ring[T]) PushBack(v T) bool {
	if r.count == len(r.buf) {
		r.dropped++

		return false
	}

	r.buf[(r.head+r.count)%len(r.buf)] = v
	r.count++

	return true
}

// PushFront inserts v ahead of everything queued. It returns false if the
// ring is full.
func (r *Ring[T]) PushFront(v T) bool {
	if r.count == len(r.buf) {
		r.dropped++

		return false
	}

	r.head = (r.head - 1 + len(r.buf)) % len(r.buf)
	r.buf[r.head] = v
	r.count++

	return true
}

// Pop removes and returns the head element.
func (r *Ring[T]) Pop() (T, bool) {
	var zero T

	if r.count == 0 {
		return zero, false
	}

	v := r.buf[r.head]
	r.buf[r.head] = zero
	r.head = (r.head + 1) % len(r.buf)
	r.count--

	return v, true
}

// Len returns the number of queued elements.
func (r *Ring[T]) Len() int {
	return r.count
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

// Flush discards every queued element.
func (r *Ring[T]) Flush() {
	clear(r.buf)
	r.head = 0
	r.count = 0
}

// Dropped returns how many pushes were rejected because the ring was full.
func (r *Ring[T]) Dropped() uint64 {
	return r.dropped
}
