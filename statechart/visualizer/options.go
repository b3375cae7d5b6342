package visualizer

// Options configures the visualization output.
type Options struct {
	// Direction is the mermaid layout direction: "TB", "LR", "BT" or "RL".
	Direction string

	// Initial names the state the [*] marker points at. Empty means the root.
	Initial string

	// ShowEvents labels transitions with their event name.
	ShowEvents bool

	// ShowTimers annotates states that have a timed-event period.
	ShowTimers bool

	// HighlightPath highlights the named states.
	HighlightPath []string
}

// DefaultOptions returns sensible defaults for visualization.
func DefaultOptions() Options {
	return Options{
		Direction:  "TB",
		ShowEvents: true,
		ShowTimers: true,
	}
}

// WithDirection sets the diagram direction.
func (o Options) WithDirection(direction string) Options {
	o.Direction = direction

	return o
}

// WithInitial sets the state the initial marker points at.
func (o Options) WithInitial(name string) Options {
	o.Initial = name

	return o
}

// WithShowEvents enables/disables event labels.
func (o Options) WithShowEvents(show bool) Options {
	o.ShowEvents = show

	return o
}

// WithShowTimers enables/disables timed-event annotations.
func (o Options) WithShowTimers(show bool) Options {
	o.ShowTimers = show

	return o
}

// WithHighlightPath sets states to highlight.
func (o Options) WithHighlightPath(path []string) Options {
	o.HighlightPath = path

	return o
}
