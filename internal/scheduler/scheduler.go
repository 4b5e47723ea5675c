// Package scheduler drives the suspend countdown and the post-wake
// recovery poll.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/nap-labs/napguard/internal/metrics"
	"github.com/nap-labs/napguard/internal/ports"
	"github.com/nap-labs/napguard/internal/state"
	"github.com/nap-labs/napguard/pkg/log"
)

// DefaultTick is the countdown granularity. It bounds the worst-case
// latency between "all inhibitors inactive for the full duration" and the
// suspend call to one tick.
const DefaultTick = time.Second

// Scheduler arms a countdown when every inhibitor goes inactive and
// suspends the machine at expiry. It is the single subscriber that drives
// the countdown state machine and the sole owner of the deadline.
type Scheduler struct {
	store  *state.Store
	feed   *state.TimerFeed
	pc     ports.ProcessControl
	logger log.Logger

	sub      *state.Subscription
	duration atomic.Int64
	tick     time.Duration
}

// New creates a scheduler and subscribes it to the store. The subscription
// happens here, before Run, so that snapshots published between
// construction and Run are not lost.
func New(store *state.Store, feed *state.TimerFeed, pc ports.ProcessControl, logger log.Logger, duration time.Duration) *Scheduler {
	s := &Scheduler{
		store:  store,
		feed:   feed,
		pc:     pc,
		logger: logger,
		sub:    store.Subscribe(),
		tick:   DefaultTick,
	}
	s.duration.Store(int64(duration))
	return s
}

// SetDuration changes the countdown total for subsequent armings. A
// countdown already running keeps its original deadline.
func (s *Scheduler) SetDuration(d time.Duration) {
	s.duration.Store(int64(d))
}

// Duration returns the configured countdown total.
func (s *Scheduler) Duration() time.Duration {
	return time.Duration(s.duration.Load())
}

// Run consumes the snapshot stream until ctx is cancelled. On every
// snapshot it decides between waiting and arming; while armed it races
// 1-second ticks against further snapshots.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.sub.Close()
	s.logger.Info("suspension scheduler started", log.Duration("duration", s.Duration()))

	for {
		var snap state.Snapshot
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap = <-s.sub.C():
		}
		if s.sub.TakeLagged() {
			s.logger.Warn("snapshot stream lagged, resyncing from store")
			snap = s.store.Snapshot()
		}

		if !snap.AllInactive() {
			s.feed.Publish(state.InactiveTimer())
			continue
		}
		s.countdown(ctx)
	}
}

// countdown runs one armed instance. It returns when the countdown is
// cancelled by an active inhibitor, when it expires, or when ctx is done.
// A snapshot with all inhibitors inactive while armed does not restart the
// deadline.
func (s *Scheduler) countdown(ctx context.Context) {
	total := s.Duration()
	deadline := time.Now().Add(total)
	s.feed.Publish(state.ActiveTimer(uint64(total / time.Second)))
	s.logger.Info("countdown armed", log.Duration("duration", total))

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			remaining := time.Until(deadline)
			if remaining <= 0 {
				s.suspend(ctx)
				return
			}
			s.feed.Publish(state.ActiveTimer(uint64(remaining / time.Second)))

		case snap := <-s.sub.C():
			if s.sub.TakeLagged() {
				s.logger.Warn("snapshot stream lagged during countdown, resyncing from store")
				snap = s.store.Snapshot()
			}
			if snap.AnyActive() {
				s.feed.Publish(state.InactiveTimer())
				s.logger.Info("countdown cancelled, inhibitor active")
				return
			}
		}
	}
}

// suspend marks the wake marker, invokes the suspend operation and always
// hands control back to the waiting state. A failed suspend is recorded in
// the error log, not retried; the next qualifying transition re-arms.
func (s *Scheduler) suspend(ctx context.Context) {
	s.feed.Publish(state.InactiveTimer())
	s.store.SetSuspended(true)
	s.logger.Info("countdown expired, suspending machine")

	if err := s.pc.Suspend(ctx); err != nil {
		s.logger.Error("machine suspend failed", log.Err(err))
		s.store.AddError("system suspend failed: " + err.Error())
		metrics.SuspendsTotal.WithLabelValues("error").Inc()
		return
	}
	metrics.SuspendsTotal.WithLabelValues("ok").Inc()
}
