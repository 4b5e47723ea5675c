// Package state holds the authoritative inhibitor state of the daemon.
//
// The [Store] owns the inhibitor flags, the diagnostic error log and the
// wake marker behind a single mutex; every mutation produces an immutable
// [Snapshot] that is broadcast to subscribers through the store's bus.
// The [TimerFeed] is a separate latest-value channel for countdown status,
// where only the newest value matters.
//
// No other package holds a mutable reference into the store; consumers
// observe snapshots and timer statuses only.
package state
