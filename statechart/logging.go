package statechart

import "log/slog"

// LogObserver logs engine notifications with slog.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates a log observer. A nil logger means slog.Default().
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}

	return &LogObserver{logger: logger}
}

func (o *LogObserver) fields(e *Engine) []any {
	return []any{
		"engine_id", e.ID().String(),
		"chart", e.Chart().Name(),
	}
}

func (o *LogObserver) Transitioned(e *Engine, from, to StateID, ev EventID) {
	c := e.Chart()

	o.logger.Debug("Transition executed", append(o.fields(e),
		"from", c.StateName(from),
		"to", c.StateName(to),
		"event", c.EventName(ev),
	)...)
}

func (o *LogObserver) Unhandled(e *Engine, ev Event) {
	c := e.Chart()

	o.logger.Debug("Event discarded", append(o.fields(e),
		"state", c.StateName(e.State()),
		"event", c.EventName(ev.ID),
	)...)
}

func (o *LogObserver) Dropped(e *Engine, ev Event) {
	o.logger.Warn("Event queue full, dropping event", append(o.fields(e),
		"event", e.Chart().EventName(ev.ID),
	)...)
}

func (o *LogObserver) TimeoutInjected(e *Engine, state StateID) {
	o.logger.Debug("Timed event expired", append(o.fields(e),
		"state", e.Chart().StateName(state),
	)...)
}

func (o *LogObserver) Terminated(e *Engine, value int) {
	o.logger.Info("Engine terminated", append(o.fields(e),
		"state", e.Chart().StateName(e.State()),
		"value", value,
	)...)
}
