package watcher

import "time"

// Clock abstracts wall time and ticker creation so scheduling can be driven
// synchronously in tests.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker is the minimal recurring-timer surface the scheduler needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realClock struct{}

// NewClock returns the wall clock.
func NewClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now().UTC() }

func (realClock) NewTicker(d time.Duration) Ticker {
	return realTicker{ticker: time.NewTicker(d)}
}

type realTicker struct {
	ticker *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.ticker.C }
func (r realTicker) Stop()               { r.ticker.Stop() }
