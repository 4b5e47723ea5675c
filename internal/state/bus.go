package state

import "sync"

// subscriptionBuffer bounds how far a subscriber may fall behind before it
// starts missing snapshots.
const subscriptionBuffer = 100

// bus multicasts snapshots to all current subscribers. Publishing never
// blocks: a subscriber whose buffer is full is flagged as lagged and must
// resynchronize from the store.
type bus struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func newBus() *bus {
	return &bus{subs: make(map[*Subscription]struct{})}
}

func (b *bus) subscribe() *Subscription {
	s := &Subscription{
		bus: b,
		ch:  make(chan Snapshot, subscriptionBuffer),
	}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// publish delivers snap to every subscriber. Zero subscribers is a no-op.
func (b *bus) publish(snap Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs {
		select {
		case s.ch <- snap:
		default:
			s.markLagged()
		}
	}
}

func (b *bus) unsubscribe(s *Subscription) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
}

// Subscription receives every snapshot published after it was created, in
// publish order, until it lags behind the buffer.
type Subscription struct {
	bus *bus
	ch  chan Snapshot

	mu     sync.Mutex
	lagged bool
}

// C returns the snapshot channel for use in select statements. After each
// receive the caller should check TakeLagged to detect a delivery gap.
func (s *Subscription) C() <-chan Snapshot {
	return s.ch
}

// TakeLagged reports whether the subscription missed snapshots since the
// last call, clearing the flag. When it returns true, any buffered
// snapshots predate the gap and have been discarded; the caller must fetch
// a fresh snapshot from the store.
func (s *Subscription) TakeLagged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.lagged {
		return false
	}
	s.lagged = false
	for {
		select {
		case <-s.ch:
		default:
			return true
		}
	}
}

// Close removes the subscription from the bus. Further publishes are not
// delivered; buffered snapshots remain readable.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s)
}

func (s *Subscription) markLagged() {
	s.mu.Lock()
	s.lagged = true
	s.mu.Unlock()
}
