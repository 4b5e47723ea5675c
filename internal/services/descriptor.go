// Package services manages the external services that act as inhibitors,
// including the escalating recovery protocol for failed start/stop
// operations.
package services

import "errors"

// Errors returned by the service manager.
var (
	// ErrUnknownService is returned for a name with no descriptor.
	ErrUnknownService = errors.New("napguard: unknown service")

	// ErrRecoveryExhausted is returned when every escalation step failed.
	ErrRecoveryExhausted = errors.New("napguard: service recovery exhausted")
)

// Descriptor is the static configuration of one managed service. Defined
// at startup, immutable thereafter, looked up by name.
type Descriptor struct {
	// Name is the inhibitor name the service is tracked under.
	Name string

	// Unit is the service manager unit identifier, e.g. "ollama.service".
	Unit string

	// ProcessPattern matches the service's processes for force
	// termination. Empty disables the force-terminate step.
	ProcessPattern string

	// Recovery permits the escalation protocol for this service.
	Recovery bool
}
