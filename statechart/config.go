package statechart

import (
	"fmt"
	"io/fs"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// TimeoutEventName is the reserved config name of EventTimeout.
const TimeoutEventName = "timeout"

// Config is the declarative form of a chart. States get ids in declaration
// order starting at 1, events in declaration order starting at FirstEvent.
type Config struct {
	Name          string             `json:"name" yaml:"name"`
	Initial       string             `json:"initial" yaml:"initial"`
	Events        []string           `json:"events" yaml:"events"`
	MaxDepth      int                `json:"maxDepth,omitempty" yaml:"maxDepth,omitempty"`
	IndexCapacity int                `json:"indexCapacity,omitempty" yaml:"indexCapacity,omitempty"`
	States        []StateConfig      `json:"states" yaml:"states"`
	Transitions   []TransitionConfig `json:"transitions" yaml:"transitions"`
	Actors        []ActorConfig      `json:"actors,omitempty" yaml:"actors,omitempty"`
}

// StateConfig defines the configuration for a state. Hooks are action names.
type StateConfig struct {
	Name    string `json:"name" yaml:"name"`
	Parent  string `json:"parent,omitempty" yaml:"parent,omitempty"`
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
	Entry   string `json:"entry,omitempty" yaml:"entry,omitempty"`
	Run     string `json:"run,omitempty" yaml:"run,omitempty"`
	Exit    string `json:"exit,omitempty" yaml:"exit,omitempty"`
	Period  uint32 `json:"period,omitempty" yaml:"period,omitempty"`
}

// TransitionConfig defines the configuration for a transition.
type TransitionConfig struct {
	From   string `json:"from" yaml:"from"`
	Event  string `json:"event" yaml:"event"`
	To     string `json:"to" yaml:"to"`
	Action string `json:"action,omitempty" yaml:"action,omitempty"`
}

// ActorConfig defines an actor attached to a state.
type ActorConfig struct {
	State string `json:"state" yaml:"state"`
	Entry string `json:"entry,omitempty" yaml:"entry,omitempty"`
	Run   string `json:"run,omitempty" yaml:"run,omitempty"`
	Exit  string `json:"exit,omitempty" yaml:"exit,omitempty"`
}

// LoadConfig reads and validates a YAML chart from the filesystem.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Intentional path-based loading
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	return LoadConfigFromBytes(data)
}

// LoadConfigFromBytes parses and validates a YAML chart.
func LoadConfigFromBytes(data []byte) (*Config, error) {
	var config Config

	err := yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadConfigFromFS loads a configuration from an embedded filesystem.
func LoadConfigFromFS(fsys fs.FS, path string) (*Config, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from FS: %w", err)
	}

	return LoadConfigFromBytes(data)
}

// Validate checks names and references. Structural checks (cycles, depth,
// index capacity) happen in Compile.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config: %w", ErrNameRequired)
	}

	if c.Initial == "" {
		return ErrInitialStateRequired
	}

	if len(c.States) == 0 {
		return fmt.Errorf("%w: no states declared", ErrInvalidConfiguration)
	}

	stateNames := make(map[string]bool, len(c.States))

	for i, state := range c.States {
		if state.Name == "" {
			return fmt.Errorf("state %d: %w", i, ErrNameRequired)
		}

		if stateNames[state.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateState, state.Name)
		}

		stateNames[state.Name] = true
	}

	eventNames := make(map[string]bool, len(c.Events))

	for i, event := range c.Events {
		switch {
		case event == "":
			return fmt.Errorf("event %d: %w", i, ErrNameRequired)
		case event == TimeoutEventName:
			return fmt.Errorf("%w: %q is reserved", ErrInvalidEvent, TimeoutEventName)
		case eventNames[event]:
			return fmt.Errorf("%w: duplicate event %q", ErrInvalidEvent, event)
		}

		eventNames[event] = true
	}

	if !stateNames[c.Initial] {
		return fmt.Errorf("%w: initial state %s", ErrUnknownState, c.Initial)
	}

	for _, state := range c.States {
		if state.Parent != "" && !stateNames[state.Parent] {
			return fmt.Errorf("state %s: %w: parent %s", state.Name, ErrUnknownState, state.Parent)
		}

		if state.Default != "" && !stateNames[state.Default] {
			return fmt.Errorf("state %s: %w: default %s", state.Name, ErrUnknownState, state.Default)
		}
	}

	for i, transition := range c.Transitions {
		if !stateNames[transition.From] {
			return fmt.Errorf("transition %d: %w: from %q", i, ErrUnknownState, transition.From)
		}

		if !stateNames[transition.To] {
			return fmt.Errorf("transition %d: %w: to %q", i, ErrUnknownState, transition.To)
		}

		if transition.Event != TimeoutEventName && !eventNames[transition.Event] {
			return fmt.Errorf("transition %d: %w: %q", i, ErrInvalidEvent, transition.Event)
		}
	}

	for i, actor := range c.Actors {
		if !stateNames[actor.State] {
			return fmt.Errorf("actor %d: %w: %q", i, ErrUnknownState, actor.State)
		}
	}

	return nil
}

// StateID returns the id a state name compiles to.
func (c *Config) StateID(name string) (StateID, bool) {
	for i, state := range c.States {
		if state.Name == name {
			return StateID(i + 1), true
		}
	}

	return StateNone, false
}

// EventID returns the id an event name compiles to.
func (c *Config) EventID(name string) (EventID, bool) {
	if name == TimeoutEventName {
		return EventTimeout, true
	}

	for i, event := range c.Events {
		if event == name {
			return FirstEvent + EventID(i), true
		}
	}

	return EventTimeout, false
}

// InitialState returns the id of the initial state.
func (c *Config) InitialState() StateID {
	id, _ := c.StateID(c.Initial)

	return id
}

// Compile validates the config, resolves action names through registry and
// builds the chart.
func (c *Config) Compile(registry *ActionRegistry) (*Chart, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	b := NewBuilder(c.Name).Events(c.Events...)

	if c.MaxDepth > 0 {
		b.MaxDepth(c.MaxDepth)
	}

	if c.IndexCapacity > 0 {
		b.IndexCapacity(c.IndexCapacity)
	}

	for i, sc := range c.States {
		hooks, err := resolveHooks(registry, sc.Entry, sc.Run, sc.Exit)
		if err != nil {
			return nil, fmt.Errorf("state %s: %w", sc.Name, err)
		}

		parent, _ := c.StateID(sc.Parent)
		def, _ := c.StateID(sc.Default)

		b.State(StateID(i+1), sc.Name,
			WithParent(parent),
			WithDefault(def),
			WithHooks(hooks),
			WithPeriod(sc.Period),
		)
	}

	for i, tc := range c.Transitions {
		action, err := registry.Lookup(tc.Action)
		if err != nil {
			return nil, fmt.Errorf("transition %d: %w", i, err)
		}

		from, _ := c.StateID(tc.From)
		to, _ := c.StateID(tc.To)
		event, _ := c.EventID(tc.Event)

		b.Transition(from, event, to, WithAction(action))
	}

	return b.Build()
}

// BuildActors resolves the configured actors into a registry that can be
// passed to Engine.LinkActors. It returns nil when no actors are configured.
func (c *Config) BuildActors(registry *ActionRegistry) ([]Actor, error) {
	if len(c.Actors) == 0 {
		return nil, nil
	}

	actors := make([]Actor, 0, len(c.Actors))

	for i, ac := range c.Actors {
		hooks, err := resolveHooks(registry, ac.Entry, ac.Run, ac.Exit)
		if err != nil {
			return nil, fmt.Errorf("actor %d: %w", i, err)
		}

		state, ok := c.StateID(ac.State)
		if !ok {
			return nil, fmt.Errorf("actor %d: %w: %q", i, ErrUnknownState, ac.State)
		}

		actors = append(actors, Actor{State: state, Hooks: hooks})
	}

	return actors, nil
}

// ActionNames returns every action name the config refers to, sorted and
// without duplicates.
func (c *Config) ActionNames() []string {
	var names []string

	add := func(ns ...string) {
		for _, n := range ns {
			if n != "" {
				names = append(names, n)
			}
		}
	}

	for _, s := range c.States {
		add(s.Entry, s.Run, s.Exit)
	}

	for _, t := range c.Transitions {
		add(t.Action)
	}

	for _, a := range c.Actors {
		add(a.Entry, a.Run, a.Exit)
	}

	slices.Sort(names)

	return slices.Compact(names)
}

// CompileInert compiles the config with every referenced action bound to a
// no-op, for tools that inspect or simulate a chart without its application.
func (c *Config) CompileInert() (*Chart, error) {
	registry := NewActionRegistry()
	for _, name := range c.ActionNames() {
		registry.Register(name, func(*Engine, any) {})
	}

	return c.Compile(registry)
}

func resolveHooks(registry *ActionRegistry, entry, run, exit string) (Hooks, error) {
	var (
		hooks Hooks
		err   error
	)

	if hooks.Entry, err = registry.Lookup(entry); err != nil {
		return Hooks{}, err
	}

	if hooks.Run, err = registry.Lookup(run); err != nil {
		return Hooks{}, err
	}

	if hooks.Exit, err = registry.Lookup(exit); err != nil {
		return Hooks{}, err
	}

	return hooks, nil
}
