package statechart

// Queue is the bounded FIFO the engine drains. Implementations must never
// block: a push onto a full queue returns false and the event is dropped.
// PushFront is used only for the internally generated timeout event.
//
// The engine does no synchronization of its own. A queue fed from other
// goroutines must be safe for concurrent pushes against one consumer.
type Queue interface {
	PushBack(ev Event) bool
	PushFront(ev Event) bool
	Pop() (Event, bool)
	Len() int
	Flush()
}
