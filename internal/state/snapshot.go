package state

import "time"

// Snapshot is an immutable point-in-time copy of the inhibitor set and the
// outstanding error log. Consumers never mutate a snapshot; all changes go
// through the Store.
type Snapshot struct {
	Inhibitors map[string]bool `json:"inhibitors"`
	Errors     []string        `json:"errors"`
}

// Active reports whether the named inhibitor is active. A name that has
// never been set reads as inactive.
func (s Snapshot) Active(name string) bool {
	return s.Inhibitors[name]
}

// AnyActive reports whether at least one inhibitor is active.
func (s Snapshot) AnyActive() bool {
	for _, active := range s.Inhibitors {
		if active {
			return true
		}
	}
	return false
}

// AllInactive reports whether no inhibitor is active.
func (s Snapshot) AllInactive() bool {
	return !s.AnyActive()
}

// TimerStatus describes the suspend countdown at one instant.
// RemainingSeconds is meaningful only while Active is true.
type TimerStatus struct {
	Active           bool   `json:"active"`
	RemainingSeconds uint64 `json:"remaining_seconds,omitempty"`
}

// ActiveTimer returns a running countdown status.
func ActiveTimer(remainingSeconds uint64) TimerStatus {
	return TimerStatus{Active: true, RemainingSeconds: remainingSeconds}
}

// InactiveTimer returns a stopped countdown status.
func InactiveTimer() TimerStatus {
	return TimerStatus{}
}

// LastAction records the most recent state-changing operation. It is
// overwritten on every mutation and never cleared; observability only.
type LastAction struct {
	Label string    `json:"label"`
	Time  time.Time `json:"time"`
}
