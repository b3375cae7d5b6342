package statechart

import "fmt"

// bounded is a fixed-capacity list. Appending past capacity is reported to
// the caller instead of silently dropping the element.
type bounded[T any] struct {
	items []T
}

func newBounded[T any](capacity int) bounded[T] {
	return bounded[T]{items: make([]T, 0, capacity)}
}

func (b *bounded[T]) add(item T) error {
	if len(b.items) == cap(b.items) {
		return fmt.Errorf("%w: limit is %d", ErrCapacityExceeded, cap(b.items))
	}

	b.items = append(b.items, item)

	return nil
}

func (b *bounded[T]) reset() {
	clear(b.items)
	b.items = b.items[:0]
}

func (b *bounded[T]) len() int {
	return len(b.items)
}

func (b *bounded[T]) all() []T {
	return b.items
}
