package state

import "sync"

// TimerFeed is a single-slot latest-value channel for countdown status.
// Writers overwrite the held value; readers either poll Latest or wait on a
// watcher's change signal. Intermediate values are coalesced when a reader
// is slow; only the newest value matters.
type TimerFeed struct {
	mu       sync.Mutex
	latest   TimerStatus
	watchers map[*TimerWatcher]struct{}
}

// NewTimerFeed creates a feed holding an inactive status.
func NewTimerFeed() *TimerFeed {
	return &TimerFeed{watchers: make(map[*TimerWatcher]struct{})}
}

// Publish overwrites the held status and signals all watchers.
func (f *TimerFeed) Publish(status TimerStatus) {
	f.mu.Lock()
	f.latest = status
	for w := range f.watchers {
		select {
		case w.ch <- struct{}{}:
		default:
		}
	}
	f.mu.Unlock()
}

// Latest returns the most recently published status.
func (f *TimerFeed) Latest() TimerStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest
}

// Watch registers a watcher that is signalled on every publish.
func (f *TimerFeed) Watch() *TimerWatcher {
	w := &TimerWatcher{feed: f, ch: make(chan struct{}, 1)}
	f.mu.Lock()
	f.watchers[w] = struct{}{}
	f.mu.Unlock()
	return w
}

// TimerWatcher signals when the feed's value changed. Signals coalesce;
// after a signal the watcher reads the current value via the feed.
type TimerWatcher struct {
	feed *TimerFeed
	ch   chan struct{}
}

// Changes returns the signal channel for use in select statements.
func (w *TimerWatcher) Changes() <-chan struct{} {
	return w.ch
}

// Latest returns the feed's current status.
func (w *TimerWatcher) Latest() TimerStatus {
	return w.feed.Latest()
}

// Close removes the watcher from the feed.
func (w *TimerWatcher) Close() {
	w.feed.mu.Lock()
	delete(w.feed.watchers, w)
	w.feed.mu.Unlock()
}
