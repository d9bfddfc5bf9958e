package goCooldown

import "context"

const dismissedMarker = "1"

// Dismissal and cooldown are orthogonal axes: dismissing the throttle UI
// never touches cooldown state and elapsing a cooldown never restores a
// dismissed UI. They are held as independent fields and keys.

// Dismiss hides the throttle UI according to the configured policy.
// Under DismissPersistent the flag is written to the store's sibling
// namespace so it survives a reload; the other policies keep it
// in-memory only.
func (g *Governor) Dismiss(ctx context.Context) {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.dismissed = true
	if g.config.Visibility.DismissPolicy == DismissPersistent {
		g.store.set(ctx, g.config.Visibility.DismissKey, dismissedMarker)
	}
	g.mu.Unlock()

	g.metricInc(MetricDismiss)
	g.emitAudit(ctx, auditEventDismiss, true, "", nil, nil)
}

// Restore reverses a dismissal.
func (g *Governor) Restore(ctx context.Context) {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.dismissed = false
	if g.config.Visibility.DismissPolicy == DismissPersistent {
		g.store.remove(ctx, g.config.Visibility.DismissKey)
	}
	g.mu.Unlock()

	g.metricInc(MetricRestore)
	g.emitAudit(ctx, auditEventRestore, true, "", nil, nil)
}

// Visible reports whether the throttle UI should be shown: the external
// eligibility predicate must hold and the UI must not be dismissed.
// Under DismissEphemeral, this re-evaluation clears the dismissal, so a
// dismiss suppresses the UI only until conditions are next checked.
//
// The eligibility predicate runs outside the governor lock and may call
// back into the governor.
func (g *Governor) Visible() bool {
	if g == nil {
		return false
	}

	eligible := true
	if g.eligible != nil {
		eligible = g.eligible()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	dismissed := g.dismissed
	if g.config.Visibility.DismissPolicy == DismissEphemeral {
		g.dismissed = false
	}
	return eligible && !dismissed
}
