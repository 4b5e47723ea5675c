package services

import (
	"context"
	"fmt"
	"time"

	"github.com/nap-labs/napguard/internal/ports"
	"github.com/nap-labs/napguard/internal/state"
	"github.com/nap-labs/napguard/pkg/log"
)

// defaultCooldown is the wait after a force terminate before retrying the
// start, giving the OS time to reap the killed processes.
const defaultCooldown = 2 * time.Second

// Manager coordinates a fixed table of managed services with the store:
// enabling a service starts its unit and raises the matching inhibitor,
// disabling stops the unit and lowers it. Failures are reflected into the
// store's error log; the inhibitor for a failed service always ends up
// inactive.
type Manager struct {
	pc       ports.ProcessControl
	store    *state.Store
	logger   log.Logger
	table    map[string]Descriptor
	cooldown time.Duration
}

// NewManager builds the descriptor table. The table is read-only after
// this call.
func NewManager(pc ports.ProcessControl, store *state.Store, logger log.Logger, descriptors []Descriptor) *Manager {
	table := make(map[string]Descriptor, len(descriptors))
	for _, d := range descriptors {
		table[d.Name] = d
	}
	return &Manager{
		pc:       pc,
		store:    store,
		logger:   logger,
		table:    table,
		cooldown: defaultCooldown,
	}
}

// Lookup returns the descriptor for name.
func (m *Manager) Lookup(name string) (Descriptor, bool) {
	d, ok := m.table[name]
	return d, ok
}

// Enable starts the service and raises its inhibitor. On a start failure
// the escalation protocol runs for services that permit it; if that too
// fails, the inhibitor is forced inactive and the accumulated diagnostics
// are appended to the error log.
func (m *Manager) Enable(ctx context.Context, name string) (state.Snapshot, error) {
	d, ok := m.table[name]
	if !ok {
		return state.Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownService, name)
	}

	m.store.ClearErrors(name)

	err := m.pc.StartService(ctx, d.Unit)
	if err != nil && d.Recovery {
		m.logger.Warn("service start failed, escalating",
			log.String("service", name), log.Err(err))
		err = m.recover(ctx, d)
	}
	if err != nil {
		snap := m.store.SetInhibitor(name, false)
		m.store.AddError(fmt.Sprintf("%s failed to start: %v", name, err))
		m.logger.Error("service enable failed", log.String("service", name), log.Err(err))
		return snap, err
	}

	m.logger.Info("service enabled", log.String("service", name))
	return m.store.SetInhibitor(name, true), nil
}

// Disable stops the service and lowers its inhibitor. A stop failure falls
// back to force termination; the inhibitor ends inactive regardless, with
// an error recorded when both attempts failed.
func (m *Manager) Disable(ctx context.Context, name string) (state.Snapshot, error) {
	d, ok := m.table[name]
	if !ok {
		return state.Snapshot{}, fmt.Errorf("%w: %s", ErrUnknownService, name)
	}

	m.store.ClearErrors(name)

	if err := m.pc.StopService(ctx, d.Unit); err != nil {
		m.logger.Warn("service stop failed, force terminating",
			log.String("service", name), log.Err(err))

		killed := false
		if d.ProcessPattern != "" {
			if kerr := m.pc.ForceTerminate(ctx, d.ProcessPattern); kerr != nil {
				m.logger.Warn("force terminate failed", log.String("service", name), log.Err(kerr))
			} else {
				killed = true
			}
		}
		if !killed {
			m.store.AddError(fmt.Sprintf("%s failed to stop: %v", name, err))
		}
	}

	m.logger.Info("service disabled", log.String("service", name))
	return m.store.SetInhibitor(name, false), nil
}

// SyncAtStartup aligns the real unit states with the daemon's all-inactive
// boot state: any unit found active is stopped. Status-check failures are
// logged and skipped, never fatal, so a broken unit cannot block startup.
func (m *Manager) SyncAtStartup(ctx context.Context) {
	for name, d := range m.table {
		active, err := m.pc.ServiceActive(ctx, d.Unit)
		if err != nil {
			m.logger.Warn("service status check failed during startup",
				log.String("service", name), log.Err(err))
			continue
		}
		if !active {
			continue
		}
		m.logger.Info("stopping service to match boot state", log.String("service", name))
		if err := m.pc.StopService(ctx, d.Unit); err != nil {
			m.logger.Warn("startup stop failed", log.String("service", name), log.Err(err))
		}
	}
}
