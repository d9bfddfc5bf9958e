package goCooldown

import "time"

// Ticker is the minimal surface of a repeating timer the governor needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock abstracts wall-clock access and ticker construction so cooldown
// timing can be tested deterministically without real timers.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s systemTicker) C() <-chan time.Time { return s.t.C }

func (s systemTicker) Stop() { s.t.Stop() }
