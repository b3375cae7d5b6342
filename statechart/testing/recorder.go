package testing

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/amp-labs/amp-hsm/statechart"
)

// TransitionRecord is one fired transition as seen by an observer.
type TransitionRecord struct {
	From  string
	To    string
	Event string
}

func (r TransitionRecord) String() string {
	return fmt.Sprintf("%s --%s--> %s", r.From, r.Event, r.To)
}

// Recorder captures the hook trace of an engine as "phase:name" strings, for
// example "entry:ON" or "action:toggle", and also serves as an Observer.
type Recorder struct {
	mu           sync.Mutex
	trace        []string
	transitions  []TransitionRecord
	unhandled    []string
	dropped      int
	timeouts     []string
	terminations []int
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(entry string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.trace = append(r.trace, entry)
}

// Hooks returns entry, run and exit hooks that record under name.
func (r *Recorder) Hooks(name string) statechart.Hooks {
	return statechart.Hooks{
		Entry: func(*statechart.Engine, any) { r.record("entry:" + name) },
		Run:   func(*statechart.Engine, any) { r.record("run:" + name) },
		Exit:  func(*statechart.Engine, any) { r.record("exit:" + name) },
	}
}

// ActorHooks is like Hooks but records with an "actor-" prefix.
func (r *Recorder) ActorHooks(name string) statechart.Hooks {
	return statechart.Hooks{
		Entry: func(*statechart.Engine, any) { r.record("actor-entry:" + name) },
		Run:   func(*statechart.Engine, any) { r.record("actor-run:" + name) },
		Exit:  func(*statechart.Engine, any) { r.record("actor-exit:" + name) },
	}
}

// Action returns a transition action that records under name.
func (r *Recorder) Action(name string) statechart.Action {
	return func(*statechart.Engine, any) { r.record("action:" + name) }
}

// Mark appends a free-form entry, useful to separate steps in a trace.
func (r *Recorder) Mark(entry string) {
	r.record(entry)
}

// Trace returns a copy of the hook trace.
func (r *Recorder) Trace() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.trace)
}

// TraceWithPrefix returns the trace entries starting with prefix.
func (r *Recorder) TraceWithPrefix(prefix string) []string {
	var out []string

	for _, entry := range r.Trace() {
		if strings.HasPrefix(entry, prefix) {
			out = append(out, entry)
		}
	}

	return out
}

// Count returns how many times entry appears in the trace.
func (r *Recorder) Count(entry string) int {
	n := 0

	for _, e := range r.Trace() {
		if e == entry {
			n++
		}
	}

	return n
}

// Transitions returns the transitions observed so far.
func (r *Recorder) Transitions() []TransitionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.transitions)
}

// UnhandledEvents returns the names of discarded events.
func (r *Recorder) UnhandledEvents() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.unhandled)
}

// DroppedCount returns the number of events rejected by a full queue.
func (r *Recorder) DroppedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.dropped
}

// Timeouts returns the names of states whose timed event fired.
func (r *Recorder) Timeouts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.timeouts)
}

// Terminations returns the values passed to Terminate.
func (r *Recorder) Terminations() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.terminations)
}

// ResetTrace clears the hook trace and keeps the observed notifications.
func (r *Recorder) ResetTrace() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.trace = nil
}

// Reset clears everything recorded.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.trace = nil
	r.transitions = nil
	r.unhandled = nil
	r.dropped = 0
	r.timeouts = nil
	r.terminations = nil
}

func (r *Recorder) Transitioned(e *statechart.Engine, from, to statechart.StateID, ev statechart.EventID) {
	c := e.Chart()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.transitions = append(r.transitions, TransitionRecord{
		From:  c.StateName(from),
		To:    c.StateName(to),
		Event: c.EventName(ev),
	})
}

func (r *Recorder) Unhandled(e *statechart.Engine, ev statechart.Event) {
	name := e.Chart().EventName(ev.ID)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.unhandled = append(r.unhandled, name)
}

func (r *Recorder) Dropped(*statechart.Engine, statechart.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.dropped++
}

func (r *Recorder) TimeoutInjected(e *statechart.Engine, state statechart.StateID) {
	name := e.Chart().StateName(state)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.timeouts = append(r.timeouts, name)
}

func (r *Recorder) Terminated(_ *statechart.Engine, value int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.terminations = append(r.terminations, value)
}
