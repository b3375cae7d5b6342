package statechart

import (
	"errors"
	"fmt"
)

// Predefined error types.
var (
	// ErrInvalidArgument indicates a nil or out-of-range argument.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidConfiguration indicates a chart that cannot drive an engine.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrResourceExhausted indicates that a fixed-capacity table is full.
	ErrResourceExhausted = errors.New("resource exhausted")
	// ErrCapacityExceeded indicates that a fixed-capacity container overflowed at build time.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrDuplicateState indicates that a state id or name was declared twice.
	ErrDuplicateState = errors.New("duplicate state")
	// ErrUnknownState indicates a reference to a state that was never declared.
	ErrUnknownState = errors.New("unknown state")
	// ErrCycle indicates a loop in the parent or default-substate relation.
	ErrCycle = errors.New("cycle detected")
	// ErrDepthExceeded indicates a parent chain deeper than the configured maximum.
	ErrDepthExceeded = errors.New("hierarchy depth exceeded")
	// ErrMultipleRoots indicates more than one state without a parent.
	ErrMultipleRoots = errors.New("more than one root state")
	// ErrInvalidEvent indicates an event id outside the declared range.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrUnknownAction indicates an action name missing from the registry.
	ErrUnknownAction = errors.New("unknown action")
	// ErrNameRequired indicates a config entry without a name.
	ErrNameRequired = errors.New("name is required")
	// ErrInitialStateRequired indicates a config without an initial state.
	ErrInitialStateRequired = errors.New("initial state is required")
)

// StateError wraps an error with state context.
type StateError struct {
	State StateID
	Err   error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state %d: %v", e.State, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// TransitionError wraps an error with the position of the offending
// transition in the table.
type TransitionError struct {
	Index  int
	Source StateID
	Event  EventID
	Target StateID
	Err    error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %d (%d --%d--> %d): %v", e.Index, e.Source, e.Event, e.Target, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// WrapStateError wraps an error with state context.
func WrapStateError(state StateID, err error) error {
	if err == nil {
		return nil
	}

	return &StateError{
		State: state,
		Err:   err,
	}
}
