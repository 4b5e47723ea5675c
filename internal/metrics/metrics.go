// Package metrics exposes Prometheus collectors for the daemon.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nap-labs/napguard/internal/state"
	"github.com/nap-labs/napguard/pkg/log"
)

var (
	// InhibitorActive mirrors the current inhibitor flags.
	InhibitorActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "napguard",
		Name:      "inhibitor_active",
		Help:      "Whether the named inhibitor is currently active.",
	}, []string{"name"})

	// TimerActive is 1 while a suspend countdown is armed.
	TimerActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "napguard",
		Name:      "timer_active",
		Help:      "Whether a suspend countdown is currently armed.",
	})

	// TimerRemainingSeconds is the countdown remainder, 0 when inactive.
	TimerRemainingSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "napguard",
		Name:      "timer_remaining_seconds",
		Help:      "Seconds remaining on the armed suspend countdown.",
	})

	// SuspendsTotal counts suspend invocations by result.
	SuspendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "napguard",
		Name:      "suspends_total",
		Help:      "Suspend invocations by result.",
	}, []string{"result"})

	// RecoveriesTotal counts escalation recovery runs by service and result.
	RecoveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "napguard",
		Name:      "service_recoveries_total",
		Help:      "Escalation recovery runs by service and result.",
	}, []string{"service", "result"})
)

// Collector mirrors store snapshots and timer statuses into the gauges.
// It runs as an ordinary bus subscriber so the core stays metrics-free.
type Collector struct {
	store  *state.Store
	sub    *state.Subscription
	watch  *state.TimerWatcher
	logger log.Logger
}

// NewCollector subscribes to the store and the timer feed.
func NewCollector(store *state.Store, feed *state.TimerFeed, logger log.Logger) *Collector {
	return &Collector{
		store:  store,
		sub:    store.Subscribe(),
		watch:  feed.Watch(),
		logger: logger,
	}
}

// Run updates the gauges until ctx is cancelled.
func (c *Collector) Run(ctx context.Context) error {
	defer c.sub.Close()
	defer c.watch.Close()

	c.record(c.store.Snapshot())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap := <-c.sub.C():
			if c.sub.TakeLagged() {
				snap = c.store.Snapshot()
			}
			c.record(snap)
		case <-c.watch.Changes():
			status := c.watch.Latest()
			if status.Active {
				TimerActive.Set(1)
				TimerRemainingSeconds.Set(float64(status.RemainingSeconds))
			} else {
				TimerActive.Set(0)
				TimerRemainingSeconds.Set(0)
			}
		}
	}
}

func (c *Collector) record(snap state.Snapshot) {
	for name, active := range snap.Inhibitors {
		v := 0.0
		if active {
			v = 1.0
		}
		InhibitorActive.WithLabelValues(name).Set(v)
	}
}
