// Package systemd implements the process control port over systemctl and
// pkill.
package systemd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/nap-labs/napguard/pkg/log"
)

// Runner executes an external command and reports its exit code together
// with trimmed stderr. err is non-nil only when the command could not be
// run at all. Injected so tests never shell out.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (exit int, stderr string, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (int, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var errBuf bytes.Buffer
	cmd.Stderr = &errBuf

	err := cmd.Run()
	stderr := strings.TrimSpace(errBuf.String())
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), stderr, nil
		}
		return 0, stderr, err
	}
	return 0, stderr, nil
}

// Control drives systemd through the systemctl binary. Force termination
// uses pkill -f, matching full command lines.
type Control struct {
	run    Runner
	logger log.Logger
}

// New creates a Control backed by real command execution.
func New(logger log.Logger) *Control {
	return &Control{run: execRunner{}, logger: logger}
}

// NewWithRunner creates a Control with a custom runner, for tests.
func NewWithRunner(run Runner, logger log.Logger) *Control {
	return &Control{run: run, logger: logger}
}

func (c *Control) StartService(ctx context.Context, unit string) error {
	return c.systemctl(ctx, "start", unit)
}

func (c *Control) StopService(ctx context.Context, unit string) error {
	return c.systemctl(ctx, "stop", unit)
}

func (c *Control) RestartService(ctx context.Context, unit string) error {
	return c.systemctl(ctx, "restart", unit)
}

// ForceTerminate kills processes matching pattern. pkill exits 1 when no
// process matched, which counts as success.
func (c *Control) ForceTerminate(ctx context.Context, pattern string) error {
	exit, stderr, err := c.run.Run(ctx, "pkill", "-f", pattern)
	if err != nil {
		return fmt.Errorf("pkill: %w", err)
	}
	if exit > 1 {
		return fmt.Errorf("pkill -f %s failed (exit %d): %s", pattern, exit, stderr)
	}
	c.logger.Debug("force terminate completed",
		log.String("pattern", pattern), log.Int("exit", exit))
	return nil
}

func (c *Control) ReloadManager(ctx context.Context) error {
	return c.systemctl(ctx, "daemon-reload")
}

// ServiceActive reports whether the unit is active. systemctl is-active
// exits non-zero for an inactive unit; that is a result, not an error.
func (c *Control) ServiceActive(ctx context.Context, unit string) (bool, error) {
	exit, _, err := c.run.Run(ctx, "systemctl", "is-active", unit)
	if err != nil {
		return false, fmt.Errorf("systemctl is-active %s: %w", unit, err)
	}
	return exit == 0, nil
}

func (c *Control) Suspend(ctx context.Context) error {
	return c.systemctl(ctx, "suspend")
}

// Available checks that systemctl exists and responds.
func (c *Control) Available(ctx context.Context) error {
	exit, stderr, err := c.run.Run(ctx, "systemctl", "--version")
	if err != nil || exit != 0 {
		return fmt.Errorf("systemctl is not available, systemd is required: %v %s", err, stderr)
	}
	return nil
}

func (c *Control) systemctl(ctx context.Context, args ...string) error {
	c.logger.Debug("systemctl", log.String("args", strings.Join(args, " ")))
	exit, stderr, err := c.run.Run(ctx, "systemctl", args...)
	if err != nil {
		return fmt.Errorf("systemctl %s: %w", args[0], err)
	}
	if exit != 0 {
		return fmt.Errorf("systemctl %s failed (exit %d): %s", args[0], exit, stderr)
	}
	return nil
}
