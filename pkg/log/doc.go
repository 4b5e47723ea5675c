// Package log defines the structured logging abstraction used across
// napguard. The daemon logs through the [Logger] interface so that the
// core packages stay independent of the concrete logging library; the
// CLI wires in the zerolog adapter, tests use the no-op logger.
package log
