package state

import (
	"strings"
	"sync"
	"time"

	"github.com/nap-labs/napguard/pkg/log"
)

// Store owns the inhibitor flags, the error log and the wake marker.
// All mutations are serialized by a single mutex; snapshots are published
// to subscribers after the lock is released so that a slow subscriber can
// never block a writer.
type Store struct {
	mu         sync.Mutex
	inhibitors map[string]bool
	errors     []string
	suspended  bool
	lastAction LastAction

	bus    *bus
	logger log.Logger
	now    func() time.Time
}

// NewStore creates an empty store. Every inhibitor starts inactive.
func NewStore(logger log.Logger) *Store {
	return &Store{
		inhibitors: make(map[string]bool),
		bus:        newBus(),
		logger:     logger,
		now:        time.Now,
	}
}

// Subscribe registers a new bus subscriber. The subscriber receives every
// snapshot published after this call.
func (s *Store) Subscribe() *Subscription {
	return s.bus.subscribe()
}

// SetInhibitor atomically sets one inhibitor flag, stamps the last action
// and publishes the resulting snapshot.
func (s *Store) SetInhibitor(name string, active bool) Snapshot {
	label := name + " off"
	if active {
		label = name + " on"
	}

	s.mu.Lock()
	s.inhibitors[name] = active
	s.lastAction = LastAction{Label: label, Time: s.now()}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("inhibitor updated", log.String("name", name), log.Bool("active", active))
	s.bus.publish(snap)
	return snap
}

// AddError appends a diagnostic message to the error log and publishes the
// resulting snapshot.
func (s *Store) AddError(msg string) {
	s.mu.Lock()
	s.errors = append(s.errors, msg)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Warn("error recorded", log.String("message", msg))
	s.bus.publish(snap)
}

// ClearErrors removes every log entry containing substr, case-insensitively.
// A snapshot is published only if the log actually shrank.
func (s *Store) ClearErrors(substr string) {
	needle := strings.ToLower(substr)

	s.mu.Lock()
	kept := s.errors[:0]
	for _, e := range s.errors {
		if !strings.Contains(strings.ToLower(e), needle) {
			kept = append(kept, e)
		}
	}
	removed := len(s.errors) - len(kept)
	s.errors = kept
	var snap Snapshot
	if removed > 0 {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Debug("errors cleared", log.String("match", substr), log.Int("count", removed))
		s.bus.publish(snap)
	}
}

// Snapshot returns the current state without publishing.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// LastAction returns the most recent state-changing operation.
func (s *Store) LastAction() LastAction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAction
}

// TriggerCheck republishes the current snapshot unchanged, forcing the
// scheduler to re-run its arming decision. Used at startup and after a
// suspend/resume cycle.
func (s *Store) TriggerCheck() {
	snap := s.Snapshot()
	s.logger.Debug("state check triggered")
	s.bus.publish(snap)
}

// SetSuspended records whether the machine is about to suspend. The marker
// is internal; it never appears in a published snapshot.
func (s *Store) SetSuspended(suspended bool) {
	s.mu.Lock()
	s.suspended = suspended
	s.mu.Unlock()
}

// Suspended reports the wake marker.
func (s *Store) Suspended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suspended
}

// snapshotLocked clones the mutable state. Callers must hold s.mu.
func (s *Store) snapshotLocked() Snapshot {
	inhibitors := make(map[string]bool, len(s.inhibitors))
	for name, active := range s.inhibitors {
		inhibitors[name] = active
	}
	errs := make([]string, len(s.errors))
	copy(errs, s.errors)
	return Snapshot{Inhibitors: inhibitors, Errors: errs}
}
