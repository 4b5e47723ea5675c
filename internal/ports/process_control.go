package ports

import "context"

// ProcessControl abstracts OS service and process management plus machine
// suspension. The core calls through this interface and never shells out
// directly. Errors carry the external diagnostic text verbatim.
type ProcessControl interface {
	// StartService starts the named service unit.
	StartService(ctx context.Context, unit string) error

	// StopService stops the named service unit.
	StopService(ctx context.Context, unit string) error

	// RestartService restarts the named service unit.
	RestartService(ctx context.Context, unit string) error

	// ForceTerminate kills every process matching pattern. The absence of
	// matching processes is success, not failure.
	ForceTerminate(ctx context.Context, pattern string) error

	// ReloadManager reloads the service manager's unit definitions.
	ReloadManager(ctx context.Context) error

	// ServiceActive reports whether the named unit is currently active.
	ServiceActive(ctx context.Context, unit string) (bool, error)

	// Suspend puts the machine to sleep.
	Suspend(ctx context.Context) error

	// Available is a preflight check that the underlying service manager
	// is usable on this machine.
	Available(ctx context.Context) error
}
