// Package ports defines the interfaces that connect the napguard core to
// infrastructure adapters.
//
// The core packages (state, scheduler, services) depend only on these
// interfaces; concrete implementations live under internal/adapters. This
// keeps the concurrency core testable with mock implementations and the OS
// integration swappable.
package ports
