package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nap-labs/napguard/internal/metrics"
	"github.com/nap-labs/napguard/pkg/log"
)

// recoveryStep is one escalation attempt. Steps are pure over the process
// control interface: they never touch the store.
type recoveryStep struct {
	name string
	run  func(ctx context.Context) error
}

// recover runs the escalation steps in order and stops at the first
// success. When every step fails it returns ErrRecoveryExhausted carrying
// the accumulated diagnostics; the caller reflects that into the store.
func (m *Manager) recover(ctx context.Context, d Descriptor) error {
	steps := []recoveryStep{
		{
			name: "force-terminate and start",
			run: func(ctx context.Context) error {
				if d.ProcessPattern != "" {
					if err := m.pc.ForceTerminate(ctx, d.ProcessPattern); err != nil {
						m.logger.Warn("force terminate failed",
							log.String("service", d.Name), log.Err(err))
					}
				}
				if err := m.sleep(ctx, m.cooldown); err != nil {
					return err
				}
				return m.pc.StartService(ctx, d.Unit)
			},
		},
		{
			name: "reload and restart",
			run: func(ctx context.Context) error {
				if err := m.pc.ReloadManager(ctx); err != nil {
					m.logger.Warn("service manager reload failed",
						log.String("service", d.Name), log.Err(err))
				}
				return m.pc.RestartService(ctx, d.Unit)
			},
		},
	}

	var diags []string
	for _, step := range steps {
		m.logger.Warn("recovery attempt",
			log.String("service", d.Name), log.String("step", step.name))
		if err := step.run(ctx); err != nil {
			diags = append(diags, fmt.Sprintf("%s: %v", step.name, err))
			continue
		}
		m.logger.Info("recovery succeeded",
			log.String("service", d.Name), log.String("step", step.name))
		metrics.RecoveriesTotal.WithLabelValues(d.Name, "ok").Inc()
		return nil
	}

	metrics.RecoveriesTotal.WithLabelValues(d.Name, "exhausted").Inc()
	return fmt.Errorf("%w: %s: %s", ErrRecoveryExhausted, d.Name, strings.Join(diags, "; "))
}

// sleep waits for the cooldown, honouring cancellation.
func (m *Manager) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
