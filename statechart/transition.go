package statechart

// process looks for a transition on ev from the current state outward to the
// root. The innermost match fires; an event no state handles is discarded.
func (e *Engine) process(ev Event) {
	for s := e.current; s != StateNone; s = e.chart.states[s].parent {
		t, ok := e.chart.match(ev.ID, s)
		if !ok {
			continue
		}

		from := e.current
		e.transition(t, ev.Data)
		e.observer.Transitioned(e, from, e.current, ev.ID)

		return
	}

	e.observer.Unhandled(e, ev)
}

// transition exits up to the least common ancestor of the current leaf and
// the target's concrete leaf, runs the transition action, then enters down
// to that leaf.
func (e *Engine) transition(t Transition, data any) {
	leaf := e.chart.Resolve(t.Target)
	lca := e.chart.LCA(e.current, leaf)

	e.exit(lca, data)
	invoke(t.Action, e, data)
	e.enter(lca, leaf, data)
}

// exit runs exit actions from the current leaf up to, not including, lca,
// rearming each exited state's countdown. Exit hooks of actors attached to
// lca fire afterwards.
func (e *Engine) exit(lca StateID, data any) {
	for s := e.current; s != lca && s != StateNone; s = e.chart.states[s].parent {
		invoke(e.chart.states[s].hooks.Exit, e, data)
		e.count[s] = e.period[s]
	}

	e.fireActors(lca, phaseExit, data)
}

// enter runs entry actions from below lca down to leaf, outermost first, then
// the entry hooks of actors attached to leaf, and makes leaf current. When
// leaf is lca (a self-transition) the leaf's own entry action runs once.
func (e *Engine) enter(lca, leaf StateID, data any) {
	e.path = e.path[:0]
	for s := leaf; s != lca && s != StateNone && len(e.path) < cap(e.path); s = e.chart.states[s].parent {
		e.path = append(e.path, s)
	}

	for i := len(e.path) - 1; i >= 0; i-- {
		invoke(e.chart.states[e.path[i]].hooks.Entry, e, data)
	}

	if lca == leaf && len(e.path) == 0 {
		invoke(e.chart.states[leaf].hooks.Entry, e, data)
	}

	e.fireActors(leaf, phaseEntry, data)

	e.current = leaf
}
