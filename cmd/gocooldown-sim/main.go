package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	goCooldown "github.com/MrEthical07/goCooldown"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// fakeServer enforces a fixed-window limit the way a real resend
// endpoint would: a short per-dispatch cooldown plus a long window
// capping total attempts. The governor under test never sees this
// struct, only 429-shaped results.
type fakeServer struct {
	mu          sync.Mutex
	cooldown    time.Duration
	resetPeriod time.Duration
	maxAttempts int

	lastDispatch time.Time
	windowStart  time.Time
	attempts     int
	accepted     int
}

func (s *fakeServer) Dispatch(_ context.Context) (goCooldown.DispatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if s.windowStart.IsZero() || now.Sub(s.windowStart) >= s.resetPeriod {
		s.windowStart = now
		s.attempts = 0
	}

	if s.attempts >= s.maxAttempts {
		resetAt := s.windowStart.Add(s.resetPeriod)
		return goCooldown.DispatchResult{
			RateLimit: &goCooldown.RateLimitSignal{ResetAt: resetAt},
		}, nil
	}

	if !s.lastDispatch.IsZero() {
		if elapsed := now.Sub(s.lastDispatch); elapsed < s.cooldown {
			rem := int((s.cooldown - elapsed + time.Second - 1) / time.Second)
			return goCooldown.DispatchResult{
				RateLimit: &goCooldown.RateLimitSignal{RemainingSeconds: rem},
			}, nil
		}
	}

	s.lastDispatch = now
	s.attempts++
	s.accepted++
	return goCooldown.DispatchResult{OK: true}, nil
}

func (s *fakeServer) Probe(_ context.Context) (goCooldown.ProbeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if s.lastDispatch.IsZero() {
		return goCooldown.ProbeResult{}, nil
	}
	elapsed := now.Sub(s.lastDispatch)
	if elapsed >= s.cooldown {
		return goCooldown.ProbeResult{}, nil
	}
	rem := int((s.cooldown - elapsed + time.Second - 1) / time.Second)
	return goCooldown.ProbeResult{Limited: true, RemainingSeconds: rem}, nil
}

func (s *fakeServer) Accepted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

type tally struct {
	triggered   int
	success     int
	cooldown    int
	rateLimited int
	exhausted   int
	failed      int
}

func main() {
	var (
		duration    = flag.Duration("duration", 30*time.Second, "how long to run the simulation")
		interval    = flag.Duration("interval", 500*time.Millisecond, "delay between button mashes")
		cooldown    = flag.Duration("cooldown", 3*time.Second, "per-dispatch cooldown")
		resetPeriod = flag.Duration("reset-period", 20*time.Second, "long attempt window")
		maxAttempts = flag.Int("max-attempts", 4, "attempts allowed per long window")
		reloadEvery = flag.Int("reload-every", 10, "rebuild the governor every N mashes; 0 disables")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "gocd-sim", "redis key prefix")
	)
	flag.Parse()

	if *duration <= 0 || *interval <= 0 || *maxAttempts <= 0 {
		fmt.Fprintln(os.Stderr, "duration, interval, and max-attempts must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	server := &fakeServer{
		cooldown:    *cooldown,
		resetPeriod: *resetPeriod,
		maxAttempts: *maxAttempts,
	}
	store := goCooldown.NewRedisStore(client, *prefix, 2*(*resetPeriod))

	cfg := goCooldown.DefaultConfig()
	cfg.Cooldown.CooldownPeriod = *cooldown
	cfg.Cooldown.ResetPeriod = *resetPeriod
	cfg.Cooldown.MaxAttempts = *maxAttempts

	governor, err := buildGovernor(cfg, store, server)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		os.Exit(1)
	}
	if _, err := governor.Activate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "activate failed: %v\n", err)
		os.Exit(1)
	}

	var counts tally
	deadline := time.Now().Add(*duration)
	mashes := 0

	fmt.Printf("mashing every %s for %s (cooldown=%s attempts=%d/%s)\n",
		*interval, *duration, *cooldown, *maxAttempts, *resetPeriod)

	for time.Now().Before(deadline) {
		mashes++

		// Periodic rebuild exercises reload reconciliation against the
		// shared store, like a page refresh mid-countdown.
		if *reloadEvery > 0 && mashes%*reloadEvery == 0 {
			governor.Close()
			governor, err = buildGovernor(cfg, store, server)
			if err != nil {
				fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
				os.Exit(1)
			}
			st, err := governor.Activate(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "re-activate failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("reloaded: phase=%s remaining=%ds\n", st.Phase, st.RemainingSeconds)
		}

		counts.triggered++
		result, err := governor.Trigger(ctx)
		switch {
		case err == nil:
			counts.success++
			fmt.Printf("mash %3d: dispatched (attempt %s)\n", mashes, result.AttemptID[:8])
		case errors.Is(err, goCooldown.ErrCooldownActive):
			counts.cooldown++
		case errors.Is(err, goCooldown.ErrDispatchRateLimited):
			counts.rateLimited++
			fmt.Printf("mash %3d: server cooldown, %ds remaining\n", mashes, result.State.RemainingSeconds)
		case errors.Is(err, goCooldown.ErrAttemptsExhausted):
			counts.exhausted++
		default:
			counts.failed++
			fmt.Printf("mash %3d: dispatch failed: %v\n", mashes, err)
		}

		time.Sleep(*interval)
	}

	governor.Close()

	fmt.Println("---- results ----")
	fmt.Printf("mashes=%d success=%d local_cooldown=%d server_429=%d exhausted=%d failed=%d\n",
		counts.triggered, counts.success, counts.cooldown, counts.rateLimited, counts.exhausted, counts.failed)
	fmt.Printf("server accepted %d dispatches\n", server.Accepted())

	snapshot := governor.MetricsSnapshot()
	fmt.Printf("metrics: started=%d elapsed=%d rate_limited=%d exhausted=%d store_failures=%d\n",
		snapshot.Counters[goCooldown.MetricCooldownStarted],
		snapshot.Counters[goCooldown.MetricCooldownElapsed],
		snapshot.Counters[goCooldown.MetricDispatchRateLimited],
		snapshot.Counters[goCooldown.MetricAttemptsExhausted],
		snapshot.Counters[goCooldown.MetricStoreFailure],
	)
}

func buildGovernor(cfg goCooldown.Config, store goCooldown.TimestampStore, server *fakeServer) (*goCooldown.Governor, error) {
	return goCooldown.New().
		WithConfig(cfg).
		WithStore(store).
		WithDispatcher(server).
		WithProber(server).
		Build()
}
