// Package app wires the napguard components into a running daemon.
package app

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/nap-labs/napguard/internal/adapters/httpapi"
	"github.com/nap-labs/napguard/internal/adapters/systemd"
	"github.com/nap-labs/napguard/internal/cliconfig"
	"github.com/nap-labs/napguard/internal/metrics"
	"github.com/nap-labs/napguard/internal/ports"
	"github.com/nap-labs/napguard/internal/scheduler"
	"github.com/nap-labs/napguard/internal/services"
	"github.com/nap-labs/napguard/internal/state"
	"github.com/nap-labs/napguard/pkg/log"
)

// Daemon owns the component graph: store, scheduler, wake monitor, service
// manager, metrics collector and HTTP server, all supervised by one
// errgroup.
type Daemon struct {
	cfg    cliconfig.Config
	logger log.Logger

	pc        ports.ProcessControl
	store     *state.Store
	feed      *state.TimerFeed
	scheduler *scheduler.Scheduler
	wake      *scheduler.WakeMonitor
	manager   *services.Manager
	collector *metrics.Collector
	server    *httpapi.Server
	watcher   *cliconfig.Watcher
}

// New wires a daemon against the real systemd adapter.
func New(cfg cliconfig.Config, configPath string, logger log.Logger) *Daemon {
	return NewWithProcessControl(cfg, configPath, systemd.New(logger), logger)
}

// NewWithProcessControl wires a daemon with an injected process control
// implementation, for tests.
func NewWithProcessControl(cfg cliconfig.Config, configPath string, pc ports.ProcessControl, logger log.Logger) *Daemon {
	store := state.NewStore(logger)
	feed := state.NewTimerFeed()

	descriptors := make([]services.Descriptor, 0, len(cfg.Services))
	for _, svc := range cfg.Services {
		descriptors = append(descriptors, services.Descriptor{
			Name:           svc.Name,
			Unit:           svc.Unit,
			ProcessPattern: svc.ProcessPattern,
			Recovery:       svc.Recovery,
		})
	}

	sched := scheduler.New(store, feed, pc, logger, cfg.TimerDuration)
	watcher := cliconfig.NewWatcher(configPath, cfg, logger, func(next cliconfig.Config) {
		sched.SetDuration(next.TimerDuration)
	})

	manager := services.NewManager(pc, store, logger, descriptors)

	return &Daemon{
		cfg:       cfg,
		logger:    logger,
		pc:        pc,
		store:     store,
		feed:      feed,
		scheduler: sched,
		wake:      scheduler.NewWakeMonitor(store, logger, cfg.WakePollInterval),
		manager:   manager,
		collector: metrics.NewCollector(store, feed, logger),
		server:    httpapi.New(store, feed, manager, logger),
		watcher:   watcher,
	}
}

// Store exposes the state store, for tests and embedding.
func (d *Daemon) Store() *state.Store {
	return d.store
}

// Run starts every background task and blocks until ctx is cancelled or a
// task fails. Managed services are synchronized to the all-inactive boot
// state before the tasks start, and an initial state check warms up the
// scheduler's arming decision.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.pc.Available(ctx); err != nil {
		return err
	}
	d.manager.SyncAtStartup(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return d.scheduler.Run(ctx) })
	g.Go(func() error { return d.wake.Run(ctx) })
	g.Go(func() error { return d.collector.Run(ctx) })
	g.Go(func() error { return d.watcher.Run(ctx) })
	g.Go(func() error { return d.server.Run(ctx, d.cfg.Addr()) })

	// The scheduler subscribed during construction, so this publish cannot
	// be lost even if its goroutine has not been scheduled yet.
	d.store.TriggerCheck()

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
