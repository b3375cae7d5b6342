package validator

import (
	"errors"
	"fmt"
	"slices"

	"github.com/amp-labs/amp-hsm/statechart"
)

var (
	// ErrStateNotFound is returned when a fix targets a state that doesn't exist.
	ErrStateNotFound = errors.New("state not found")
	// ErrStateInUse is returned when removing a state other states still refer to.
	ErrStateInUse = errors.New("state is still referenced")
	// ErrDuplicateNotFound is returned when attempting to remove a duplicate that doesn't exist.
	ErrDuplicateNotFound = errors.New("duplicate not found")
	// ErrDefaultAlreadySet is returned when a composite state already has a default.
	ErrDefaultAlreadySet = errors.New("default substate already set")
)

// Fix represents an automatic fix for a validation issue.
type Fix struct {
	Description string
	Apply       func(config *statechart.Config) error
}

// RemoveUnreachableState creates a fix that removes a state together with
// the transitions and actors that mention it. States nested under it or
// using it as a default block the fix.
func RemoveUnreachableState(stateName string) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Remove unreachable state '%s'", stateName),
		Apply: func(config *statechart.Config) error {
			idx := slices.IndexFunc(config.States, func(s statechart.StateConfig) bool {
				return s.Name == stateName
			})
			if idx < 0 {
				return fmt.Errorf("%w: %s", ErrStateNotFound, stateName)
			}

			for _, s := range config.States {
				if s.Parent == stateName || s.Default == stateName {
					return fmt.Errorf("%w: %s by %s", ErrStateInUse, stateName, s.Name)
				}
			}

			config.States = slices.Delete(config.States, idx, idx+1)
			config.Transitions = slices.DeleteFunc(config.Transitions, func(t statechart.TransitionConfig) bool {
				return t.From == stateName || t.To == stateName
			})
			config.Actors = slices.DeleteFunc(config.Actors, func(a statechart.ActorConfig) bool {
				return a.State == stateName
			})

			return nil
		},
	}
}

// RemoveShadowedTransition creates a fix that removes the last transition
// on (from, event) when more than one is declared. Only the first one can
// fire, so one application per duplicate leaves exactly that one.
func RemoveShadowedTransition(from, event string) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Remove shadowed transition on '%s' from '%s'", event, from),
		Apply: func(config *statechart.Config) error {
			var matches []int

			for i, t := range config.Transitions {
				if t.From == from && t.Event == event {
					matches = append(matches, i)
				}
			}

			if len(matches) < 2 { //nolint:mnd // first declaration plus at least one shadowed copy
				return fmt.Errorf("%w: %s on %s", ErrDuplicateNotFound, from, event)
			}

			last := matches[len(matches)-1]
			config.Transitions = slices.Delete(config.Transitions, last, last+1)

			return nil
		},
	}
}

// SetDefaultSubstate creates a fix that gives a composite state a default.
func SetDefaultSubstate(stateName, child string) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Set default substate of '%s' to '%s'", stateName, child),
		Apply: func(config *statechart.Config) error {
			for i := range config.States {
				if config.States[i].Name != stateName {
					continue
				}

				if config.States[i].Default != "" {
					return fmt.Errorf("%w: %s", ErrDefaultAlreadySet, stateName)
				}

				config.States[i].Default = child

				return nil
			}

			return fmt.Errorf("%w: %s", ErrStateNotFound, stateName)
		},
	}
}

// ApplyFixes applies fixes in order and joins every failure.
func ApplyFixes(config *statechart.Config, fixes []*Fix) error {
	var errs []error

	for _, fix := range fixes {
		if fix == nil || fix.Apply == nil {
			continue
		}

		if err := fix.Apply(config); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", fix.Description, err))
		}
	}

	return errors.Join(errs...)
}

// AutoFix repeatedly validates config and applies the first fix that
// succeeds, until no remaining fix applies. Fixes that fail are retried on
// the next round, since an earlier fix may unblock them. It returns the
// descriptions of the applied fixes and the final result.
func AutoFix(config *statechart.Config) ([]string, ValidationResult) {
	var applied []string

	for {
		result := Validate(config)

		fix := firstApplicable(config, result.Fixes())
		if fix == nil {
			return applied, result
		}

		applied = append(applied, fix.Description)
	}
}

func firstApplicable(config *statechart.Config, fixes []*Fix) *Fix {
	for _, fix := range fixes {
		if fix.Apply != nil && fix.Apply(config) == nil {
			return fix
		}
	}

	return nil
}
