package goCooldown

import "errors"

// Builder assembles a Governor from configuration and injected
// capabilities. A Builder is single-use: Build succeeds at most once.
type Builder struct {
	config Config

	store      TimestampStore
	dispatcher ActionDispatcher
	prober     StatusProber
	clock      Clock
	eligible   func() bool
	elapsed    []func()
	auditSink  AuditSink

	built bool
}

// New creates a Builder with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore injects the durable timestamp store. When omitted, the
// governor falls back to an in-memory store and cooldowns are
// session-only.
func (b *Builder) WithStore(store TimestampStore) *Builder {
	b.store = store
	return b
}

// WithDispatcher injects the capability that performs the mutating
// server action. Required.
func (b *Builder) WithDispatcher(dispatcher ActionDispatcher) *Builder {
	b.dispatcher = dispatcher
	return b
}

// WithProber injects the advisory server limit probe. Optional; without
// it the governor trusts local reconciliation alone.
func (b *Builder) WithProber(prober StatusProber) *Builder {
	b.prober = prober
	return b
}

// WithClock injects a Clock, usually a fake one in tests.
func (b *Builder) WithClock(clock Clock) *Builder {
	b.clock = clock
	return b
}

// WithEligibility injects the external predicate gating whether the
// throttle UI is shown at all. It is re-evaluated on every Visible call
// and is independent of cooldown state.
func (b *Builder) WithEligibility(fn func() bool) *Builder {
	b.eligible = fn
	return b
}

// WithElapsedHook registers a callback fired when a countdown reaches
// zero. Hooks run outside the governor lock.
func (b *Builder) WithElapsedHook(fn func()) *Builder {
	if fn != nil {
		b.elapsed = append(b.elapsed, fn)
	}
	return b
}

// WithAuditSink injects the audit event sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles metric collection.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the dispatch latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and assembles the Governor.
func (b *Builder) Build() (*Governor, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.dispatcher == nil {
		return nil, errors.New("action dispatcher required")
	}

	underlying := b.store
	if underlying == nil {
		underlying = NewMemoryStore()
	}

	clock := b.clock
	if clock == nil {
		clock = systemClock{}
	}

	g := &Governor{
		config:     cfg,
		dispatcher: b.dispatcher,
		prober:     b.prober,
		clock:      clock,
		eligible:   b.eligible,
		elapsedFns: append([]func(){}, b.elapsed...),
	}

	g.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	g.metrics = NewMetrics(cfg.Metrics)
	g.store = newFailSoftStore(underlying, g.storeFailure)

	b.built = true

	return g, nil
}
