package statechart

import "fmt"

type phase int

const (
	phaseEntry phase = iota
	phaseRun
	phaseExit
)

// LinkActors registers a caller-owned slice of actors in the next free
// registry slot. The slice is not copied. Linking while Run may be executing
// on another goroutine is not synchronized.
func (e *Engine) LinkActors(actors []Actor) error {
	if e == nil || e.chart == nil || len(actors) == 0 {
		return fmt.Errorf("%w: no actors", ErrInvalidArgument)
	}

	for i, a := range actors {
		if !e.chart.Has(a.State) {
			return fmt.Errorf("%w: actor %d: %w", ErrInvalidArgument, i, WrapStateError(a.State, ErrUnknownState))
		}
	}

	if err := e.registries.add(actors); err != nil {
		return fmt.Errorf("%w: actor registries: %w", ErrResourceExhausted, err)
	}

	e.logger.Debug("statechart actors linked",
		"engine_id", e.id.String(),
		"actors", len(actors),
		"registries", e.registries.len(),
	)

	return nil
}

// fireActors invokes the hook for p on every actor attached exactly to id.
func (e *Engine) fireActors(id StateID, p phase, data any) {
	if id == StateNone {
		return
	}

	for _, registry := range e.registries.all() {
		for i := range registry {
			a := &registry[i]
			if a.State != id {
				continue
			}

			switch p {
			case phaseEntry:
				invoke(a.Entry, e, data)
			case phaseRun:
				invoke(a.Run, e, data)
			case phaseExit:
				invoke(a.Exit, e, data)
			}
		}
	}
}
