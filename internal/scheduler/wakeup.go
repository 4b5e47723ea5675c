package scheduler

import (
	"context"
	"time"

	"github.com/nap-labs/napguard/internal/state"
	"github.com/nap-labs/napguard/pkg/log"
)

// DefaultWakeInterval is how often the wake monitor polls the suspend
// marker.
const DefaultWakeInterval = 15 * time.Second

// WakeMonitor detects a completed suspend/resume cycle and forces the
// scheduler to re-evaluate its arming decision. A real OS suspend freezes
// in-process timers for the suspend duration, so the countdown bookkeeping
// is stale after resume; republishing the current snapshot brings the
// scheduler back to a consistent decision.
type WakeMonitor struct {
	store    *state.Store
	logger   log.Logger
	interval time.Duration
}

// NewWakeMonitor creates a monitor polling on the given interval.
func NewWakeMonitor(store *state.Store, logger log.Logger, interval time.Duration) *WakeMonitor {
	if interval <= 0 {
		interval = DefaultWakeInterval
	}
	return &WakeMonitor{store: store, logger: logger, interval: interval}
}

// Run polls until ctx is cancelled.
func (w *WakeMonitor) Run(ctx context.Context) error {
	w.logger.Info("wake recovery monitor started", log.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !w.store.Suspended() {
				continue
			}
			w.logger.Info("wake-up detected, re-evaluating inhibitors")
			w.store.TriggerCheck()
			w.store.SetSuspended(false)
		}
	}
}
