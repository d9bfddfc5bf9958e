package goCooldown

import "context"

// probeOnce consults the advisory limit probe. It is called only when
// local reconciliation reported ready, so no call is wasted while a
// countdown is already running. The probe is advisory: any error is
// swallowed and the governor stays ready (fail-open), because the server
// remains authoritative and will re-reject an overlimit dispatch.
func (g *Governor) probeOnce(ctx context.Context, epoch uint64) {
	if g.prober == nil || !g.config.Probe.Enabled {
		return
	}

	probeCtx := ctx
	if g.config.Probe.Timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, g.config.Probe.Timeout)
		defer cancel()
	}

	result, err := g.prober.Probe(probeCtx)

	g.mu.Lock()
	if g.closed || g.epoch != epoch {
		g.mu.Unlock()
		return
	}

	if err != nil {
		g.mu.Unlock()
		g.metricInc(MetricProbeFailure)
		g.emitAudit(ctx, auditEventProbe, false, "", err, nil)
		return
	}

	if result.Limited && result.RemainingSeconds > 0 {
		// Same reconciliation path as a dispatch-time rate limit.
		g.adoptServerRemainingLocked(ctx, result.RemainingSeconds)
		g.mu.Unlock()
		g.metricInc(MetricProbeLimited)
		g.emitAudit(ctx, auditEventProbe, true, "", nil, func() map[string]string {
			return map[string]string{
				"limited": "true",
			}
		})
		return
	}

	g.mu.Unlock()
	g.emitAudit(ctx, auditEventProbe, true, "", nil, nil)
}
