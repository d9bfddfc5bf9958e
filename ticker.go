package goCooldown

import (
	"context"
	"time"
)

// The countdown ticker's lifetime is tied exactly to the "cooldown
// active" condition: startTickerLocked when a cooldown engages,
// stopTickerLocked when it elapses, is rolled back, or the governor
// closes. Every exit path releases the timer.

func (g *Governor) startTickerLocked() {
	if g.ticker != nil || g.closed {
		return
	}
	g.ticker = g.clock.NewTicker(time.Second)
	g.tickerStop = make(chan struct{})
	go g.runTicker(g.ticker, g.tickerStop, g.epoch)
}

func (g *Governor) stopTickerLocked() {
	if g.ticker == nil {
		return
	}
	g.ticker.Stop()
	close(g.tickerStop)
	g.ticker = nil
	g.tickerStop = nil
}

func (g *Governor) runTicker(ticker Ticker, stop chan struct{}, epoch uint64) {
	for {
		select {
		case <-ticker.C():
			if !g.onTick(epoch) {
				return
			}
		case <-stop:
			return
		}
	}
}

// onTick re-derives the countdown from the wall clock instead of
// decrementing a counter, so ticks dropped while the process was
// suspended are healed here. Returns false once the ticker should exit.
func (g *Governor) onTick(epoch uint64) bool {
	g.mu.Lock()
	if g.closed || g.epoch != epoch || g.dispatchedAt.IsZero() {
		g.mu.Unlock()
		return false
	}

	rem := g.remainingLocked(g.clock.Now())
	if rem > 0 {
		g.mu.Unlock()
		return true
	}

	g.clearCooldownLocked(context.Background())
	hooks := g.elapsedFns
	g.mu.Unlock()

	g.metricInc(MetricCooldownElapsed)
	g.emitAudit(context.Background(), auditEventElapsed, true, "", nil, nil)
	for _, fn := range hooks {
		fn()
	}
	return false
}
