package validator

import (
	"fmt"

	"facette.io/natsort"
	"github.com/amp-labs/amp-hsm/statechart"
)

// Severity defines the severity level of a validation issue.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// RuleResult contains both errors and warnings from a rule check.
type RuleResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// Rule checks a config and the chart it compiles to for a specific issue.
type Rule interface {
	Name() string
	Severity() Severity
	Check(config *statechart.Config, chart *statechart.Chart) RuleResult
}

// DefaultRules returns the standard set of validation rules.
func DefaultRules() []Rule {
	return []Rule{
		&unreachableStateRule{},
		&defaultNotChildRule{},
		&compositeWithoutDefaultRule{},
		&duplicateTransitionRule{},
		&indexPressureRule{},
		&unusedEventRule{},
		&timeoutWithoutPeriodRule{},
		&periodWithoutTimeoutRule{},
	}
}

// RegisteredRules stores custom validation rules run after the given rules.
var RegisteredRules []Rule

// RegisterRule adds a custom validation rule.
func RegisterRule(rule Rule) {
	RegisteredRules = append(RegisteredRules, rule)
}

// reachableLeaves returns the leaves the engine can settle in, starting from
// the resolved initial state. A transition is live in a leaf when its source
// is the leaf or one of its ancestors.
func reachableLeaves(config *statechart.Config, chart *statechart.Chart) map[statechart.StateID]bool {
	start := chart.Resolve(config.InitialState())
	seen := map[statechart.StateID]bool{start: true}
	queue := []statechart.StateID{start}

	transitions := chart.Transitions()

	for len(queue) > 0 {
		leaf := queue[0]
		queue = queue[1:]

		for _, t := range transitions {
			if !chart.IsAncestor(t.Source, leaf) {
				continue
			}

			next := chart.Resolve(t.Target)
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}

	return seen
}

// unreachableStateRule flags states that are neither a reachable leaf nor an
// ancestor of one.
type unreachableStateRule struct{}

func (r *unreachableStateRule) Name() string {
	return "UnreachableState"
}

func (r *unreachableStateRule) Severity() Severity {
	return SeverityWarning
}

func (r *unreachableStateRule) Check(config *statechart.Config, chart *statechart.Chart) RuleResult {
	var warnings []ValidationWarning

	active := make(map[statechart.StateID]bool)
	for leaf := range reachableLeaves(config, chart) {
		for s := leaf; s != statechart.StateNone; s = chart.Parent(s) {
			active[s] = true
		}
	}

	for _, id := range chart.States() {
		if active[id] {
			continue
		}

		name := chart.StateName(id)
		warnings = append(warnings, ValidationWarning{
			Code:     "UNREACHABLE_STATE",
			Message:  fmt.Sprintf("State '%s' cannot be reached from initial state '%s'", name, config.Initial),
			Location: Location{State: name},
			Fix:      RemoveUnreachableState(name),
		})
	}

	return RuleResult{Warnings: warnings}
}

// defaultNotChildRule flags default substates that are not direct children.
type defaultNotChildRule struct{}

func (r *defaultNotChildRule) Name() string {
	return "DefaultNotChild"
}

func (r *defaultNotChildRule) Severity() Severity {
	return SeverityError
}

func (r *defaultNotChildRule) Check(_ *statechart.Config, chart *statechart.Chart) RuleResult {
	var errors []ValidationError

	for _, id := range chart.States() {
		def := chart.DefaultSubstate(id)
		if def == statechart.StateNone || chart.Parent(def) == id {
			continue
		}

		errors = append(errors, ValidationError{
			Code: "DEFAULT_NOT_CHILD",
			Message: fmt.Sprintf("Default substate '%s' of '%s' is not one of its children",
				chart.StateName(def), chart.StateName(id)),
			Location: Location{State: chart.StateName(id)},
		})
	}

	return RuleResult{Errors: errors}
}

// compositeWithoutDefaultRule flags composite states without a default
// substate; targeting one leaves the engine in the composite itself.
type compositeWithoutDefaultRule struct{}

func (r *compositeWithoutDefaultRule) Name() string {
	return "CompositeWithoutDefault"
}

func (r *compositeWithoutDefaultRule) Severity() Severity {
	return SeverityWarning
}

func (r *compositeWithoutDefaultRule) Check(_ *statechart.Config, chart *statechart.Chart) RuleResult {
	var warnings []ValidationWarning

	for _, id := range chart.States() {
		children := chart.Children(id)
		if len(children) == 0 || chart.DefaultSubstate(id) != statechart.StateNone {
			continue
		}

		name := chart.StateName(id)
		warnings = append(warnings, ValidationWarning{
			Code:     "COMPOSITE_WITHOUT_DEFAULT",
			Message:  fmt.Sprintf("Composite state '%s' has no default substate", name),
			Location: Location{State: name},
			Fix:      SetDefaultSubstate(name, chart.StateName(children[0])),
		})
	}

	return RuleResult{Warnings: warnings}
}

// duplicateTransitionRule flags a (source, event) pair declared twice. Only
// the first declaration can ever fire.
type duplicateTransitionRule struct{}

func (r *duplicateTransitionRule) Name() string {
	return "DuplicateTransition"
}

func (r *duplicateTransitionRule) Severity() Severity {
	return SeverityWarning
}

func (r *duplicateTransitionRule) Check(config *statechart.Config, _ *statechart.Chart) RuleResult {
	var warnings []ValidationWarning

	seen := make(map[string]int)

	for i, transition := range config.Transitions {
		key := transition.From + "\x00" + transition.Event
		if first, ok := seen[key]; ok {
			warnings = append(warnings, ValidationWarning{
				Code: "DUPLICATE_TRANSITION",
				Message: fmt.Sprintf("Transition on '%s' from '%s' is shadowed by transition %d",
					transition.Event, transition.From, first),
				Location: Location{State: transition.From, Transition: i + 1},
				Fix:      RemoveShadowedTransition(transition.From, transition.Event),
			})

			continue
		}

		seen[key] = i + 1
	}

	return RuleResult{Warnings: warnings}
}

// indexPressureRule warns when an event's index slot is full, so the next
// transition on that event would fail to compile.
type indexPressureRule struct{}

func (r *indexPressureRule) Name() string {
	return "IndexPressure"
}

func (r *indexPressureRule) Severity() Severity {
	return SeverityWarning
}

func (r *indexPressureRule) Check(config *statechart.Config, chart *statechart.Chart) RuleResult {
	var warnings []ValidationWarning

	capacity := config.IndexCapacity
	if capacity <= 0 {
		capacity = statechart.DefaultIndexCapacity
	}

	for ev := statechart.EventTimeout; int(ev) <= chart.NumEvents(); ev++ {
		if n := len(chart.Candidates(ev)); n >= capacity {
			warnings = append(warnings, ValidationWarning{
				Code: "INDEX_PRESSURE",
				Message: fmt.Sprintf("Event '%s' has %d transitions, the index capacity is %d",
					chart.EventName(ev), n, capacity),
			})
		}
	}

	return RuleResult{Warnings: warnings}
}

// unusedEventRule flags declared events no transition uses.
type unusedEventRule struct{}

func (r *unusedEventRule) Name() string {
	return "UnusedEvent"
}

func (r *unusedEventRule) Severity() Severity {
	return SeverityWarning
}

func (r *unusedEventRule) Check(config *statechart.Config, _ *statechart.Chart) RuleResult {
	used := make(map[string]bool)
	for _, t := range config.Transitions {
		used[t.Event] = true
	}

	var unused []string

	for _, ev := range config.Events {
		if !used[ev] {
			unused = append(unused, ev)
		}
	}

	natsort.Sort(unused)

	warnings := make([]ValidationWarning, 0, len(unused))
	for _, ev := range unused {
		warnings = append(warnings, ValidationWarning{
			Code:    "UNUSED_EVENT",
			Message: fmt.Sprintf("Event '%s' is declared but no transition uses it", ev),
		})
	}

	return RuleResult{Warnings: warnings}
}

// timeoutWithoutPeriodRule flags timeout transitions whose source has no
// descendant (or self) with a timed-event period, so they can never fire.
type timeoutWithoutPeriodRule struct{}

func (r *timeoutWithoutPeriodRule) Name() string {
	return "TimeoutWithoutPeriod"
}

func (r *timeoutWithoutPeriodRule) Severity() Severity {
	return SeverityWarning
}

func (r *timeoutWithoutPeriodRule) Check(_ *statechart.Config, chart *statechart.Chart) RuleResult {
	var warnings []ValidationWarning

	for i, t := range chart.Transitions() {
		if t.Event != statechart.EventTimeout || hasTimedDescendant(chart, t.Source) {
			continue
		}

		name := chart.StateName(t.Source)
		warnings = append(warnings, ValidationWarning{
			Code:     "TIMEOUT_WITHOUT_PERIOD",
			Message:  fmt.Sprintf("Timeout transition from '%s' can never fire: no state below it has a period", name),
			Location: Location{State: name, Transition: i + 1},
		})
	}

	return RuleResult{Warnings: warnings}
}

func hasTimedDescendant(chart *statechart.Chart, id statechart.StateID) bool {
	if chart.Period(id) > 0 {
		return true
	}

	for _, child := range chart.Children(id) {
		if hasTimedDescendant(chart, child) {
			return true
		}
	}

	return false
}

// periodWithoutTimeoutRule flags states with a period where neither the
// state nor an ancestor handles the timeout event.
type periodWithoutTimeoutRule struct{}

func (r *periodWithoutTimeoutRule) Name() string {
	return "PeriodWithoutTimeout"
}

func (r *periodWithoutTimeoutRule) Severity() Severity {
	return SeverityWarning
}

func (r *periodWithoutTimeoutRule) Check(_ *statechart.Config, chart *statechart.Chart) RuleResult {
	var warnings []ValidationWarning

	handlers := chart.Candidates(statechart.EventTimeout)

	for _, id := range chart.States() {
		if chart.Period(id) == 0 {
			continue
		}

		handled := false

		for _, t := range handlers {
			if chart.IsAncestor(t.Source, id) {
				handled = true

				break
			}
		}

		if handled {
			continue
		}

		name := chart.StateName(id)
		warnings = append(warnings, ValidationWarning{
			Code:     "PERIOD_WITHOUT_TIMEOUT",
			Message:  fmt.Sprintf("State '%s' has a period but its timeout is never handled", name),
			Location: Location{State: name},
		})
	}

	return RuleResult{Warnings: warnings}
}
