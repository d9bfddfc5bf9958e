package goCooldown

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

// fakeClock is a manually driven Clock. Advance moves the reported wall
// time; Tick delivers one tick to every live fake ticker.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(_ time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	tk := &fakeTicker{c: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, tk)
	return tk
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) Tick() {
	c.mu.Lock()
	now := c.now
	tickers := append([]*fakeTicker{}, c.tickers...)
	c.mu.Unlock()

	for _, tk := range tickers {
		tk.fire(now)
	}
}

func (c *fakeClock) liveTickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, tk := range c.tickers {
		if !tk.stopped.Load() {
			n++
		}
	}
	return n
}

type fakeTicker struct {
	c       chan time.Time
	stopped atomic.Bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.c }

func (t *fakeTicker) Stop() { t.stopped.Store(true) }

func (t *fakeTicker) fire(now time.Time) {
	if t.stopped.Load() {
		return
	}
	select {
	case t.c <- now:
	default:
	}
}

type dispatchOutcome struct {
	result DispatchResult
	err    error
}

// scriptedDispatcher replays a fixed sequence of outcomes; the last
// outcome repeats once the script runs out.
type scriptedDispatcher struct {
	mu       sync.Mutex
	script   []dispatchOutcome
	calls    int
	blocking chan struct{}
}

func (d *scriptedDispatcher) Dispatch(_ context.Context) (DispatchResult, error) {
	d.mu.Lock()
	blocking := d.blocking
	d.mu.Unlock()
	if blocking != nil {
		<-blocking
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	idx := d.calls
	d.calls++
	if idx >= len(d.script) {
		idx = len(d.script) - 1
	}
	if idx < 0 {
		return DispatchResult{OK: true}, nil
	}
	return d.script[idx].result, d.script[idx].err
}

func (d *scriptedDispatcher) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type scriptedProber struct {
	mu     sync.Mutex
	result ProbeResult
	err    error
	calls  int
}

func (p *scriptedProber) Probe(_ context.Context) (ProbeResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.result, p.err
}

func (p *scriptedProber) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// flakyStore wraps a MemoryStore and fails on demand.
type flakyStore struct {
	inner   *MemoryStore
	failing atomic.Bool
	failErr error
}

func newFlakyStore(failErr error) *flakyStore {
	return &flakyStore{
		inner:   NewMemoryStore(),
		failErr: failErr,
	}
}

func (s *flakyStore) Get(ctx context.Context, key string) (string, error) {
	if s.failing.Load() {
		return "", s.failErr
	}
	return s.inner.Get(ctx, key)
}

func (s *flakyStore) Set(ctx context.Context, key, value string) error {
	if s.failing.Load() {
		return s.failErr
	}
	return s.inner.Set(ctx, key, value)
}

func (s *flakyStore) Remove(ctx context.Context, key string) error {
	if s.failing.Load() {
		return s.failErr
	}
	return s.inner.Remove(ctx, key)
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.Cooldown.CooldownPeriod = 45 * time.Second
	cfg.Cooldown.ResetPeriod = 10 * time.Minute
	cfg.Cooldown.MaxAttempts = 3
	return cfg
}

func newTestGovernor(
	t *testing.T,
	cfg Config,
	store TimestampStore,
	clock Clock,
	dispatcher ActionDispatcher,
	opts ...func(*Builder),
) *Governor {
	t.Helper()

	b := New().
		WithConfig(cfg).
		WithStore(store).
		WithClock(clock).
		WithDispatcher(dispatcher)
	for _, opt := range opts {
		opt(b)
	}

	g, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return g
}

func activated(t *testing.T, g *Governor) State {
	t.Helper()

	st, err := g.Activate(context.Background())
	if err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	return st
}
