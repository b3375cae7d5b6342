package statechart

import (
	"fmt"
	"maps"
	"slices"
)

// ActionRegistry resolves the action names used in a Config. Applications
// register their own actions before compiling.
type ActionRegistry struct {
	actions map[string]Action
}

// NewActionRegistry creates a registry holding the built-in "noop" action.
func NewActionRegistry() *ActionRegistry {
	r := &ActionRegistry{
		actions: make(map[string]Action),
	}

	r.Register("noop", func(*Engine, any) {})

	return r
}

// Register binds name to fn, replacing any previous binding.
func (r *ActionRegistry) Register(name string, fn Action) {
	r.actions[name] = fn
}

// Lookup resolves name. The empty name resolves to a nil action.
func (r *ActionRegistry) Lookup(name string) (Action, error) {
	if name == "" {
		return nil, nil //nolint:nilnil // absent hook
	}

	if r == nil {
		return nil, fmt.Errorf("%w: %s (no registry)", ErrUnknownAction, name)
	}

	fn, ok := r.actions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}

	return fn, nil
}

// Names returns the registered names in sorted order.
func (r *ActionRegistry) Names() []string {
	return slices.Sorted(maps.Keys(r.actions))
}

// TerminateWith returns an action that terminates the engine with value.
func TerminateWith(value int) Action {
	return func(e *Engine, _ any) {
		e.Terminate(value)
	}
}

// DispatchAction returns an action that queues ev with the data it received,
// for chaining a follow-up event from an entry or transition action.
func DispatchAction(ev EventID) Action {
	return func(e *Engine, data any) {
		e.Dispatch(ev, data)
	}
}
