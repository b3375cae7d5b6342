package runner

import "time"

// Ticker is the tick source driving an engine's timed events.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a Ticker firing every interval.
type TickerFactory func(interval time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.t.C
}

func (t timeTicker) Stop() {
	t.t.Stop()
}

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(interval time.Duration) Ticker { //nolint:ireturn
	return timeTicker{t: time.NewTicker(interval)}
}

// ManualTicker is a Ticker fired by hand, for tests and simulations.
type ManualTicker struct {
	ch chan time.Time
}

// NewManualTicker creates a ticker whose channel holds up to buffer pending ticks.
func NewManualTicker(buffer int) *ManualTicker {
	return &ManualTicker{ch: make(chan time.Time, buffer)}
}

// Tick delivers one tick, blocking while the buffer is full.
func (m *ManualTicker) Tick() {
	m.ch <- time.Now()
}

func (m *ManualTicker) C() <-chan time.Time {
	return m.ch
}

func (m *ManualTicker) Stop() {}

// Factory returns a TickerFactory that always hands out m.
func (m *ManualTicker) Factory() TickerFactory {
	return func(time.Duration) Ticker { return m }
}
