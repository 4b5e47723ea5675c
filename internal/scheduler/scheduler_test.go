package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nap-labs/napguard/internal/state"
	"github.com/nap-labs/napguard/pkg/log"
)

// fakeProcessControl records suspend invocations; all other operations
// succeed silently.
type fakeProcessControl struct {
	mu         sync.Mutex
	suspends   []time.Time
	suspendErr error
}

func (f *fakeProcessControl) StartService(ctx context.Context, unit string) error   { return nil }
func (f *fakeProcessControl) StopService(ctx context.Context, unit string) error    { return nil }
func (f *fakeProcessControl) RestartService(ctx context.Context, unit string) error { return nil }
func (f *fakeProcessControl) ForceTerminate(ctx context.Context, pattern string) error {
	return nil
}
func (f *fakeProcessControl) ReloadManager(ctx context.Context) error { return nil }
func (f *fakeProcessControl) ServiceActive(ctx context.Context, unit string) (bool, error) {
	return false, nil
}
func (f *fakeProcessControl) Available(ctx context.Context) error { return nil }

func (f *fakeProcessControl) Suspend(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suspends = append(f.suspends, time.Now())
	return f.suspendErr
}

func (f *fakeProcessControl) suspendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.suspends)
}

func (f *fakeProcessControl) firstSuspend() (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.suspends) == 0 {
		return time.Time{}, false
	}
	return f.suspends[0], true
}

type schedulerFixture struct {
	store  *state.Store
	feed   *state.TimerFeed
	pc     *fakeProcessControl
	sched  *Scheduler
	cancel context.CancelFunc
	done   chan struct{}
}

func startScheduler(t *testing.T, duration, tick time.Duration) *schedulerFixture {
	t.Helper()

	fx := &schedulerFixture{
		store: state.NewStore(log.NewNoopLogger()),
		feed:  state.NewTimerFeed(),
		pc:    &fakeProcessControl{},
		done:  make(chan struct{}),
	}
	fx.sched = New(fx.store, fx.feed, fx.pc, log.NewNoopLogger(), duration)
	fx.sched.tick = tick

	ctx, cancel := context.WithCancel(context.Background())
	fx.cancel = cancel
	go func() {
		defer close(fx.done)
		_ = fx.sched.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-fx.done
	})
	return fx
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestScheduler_SuspendsExactlyOnceAtExpiry(t *testing.T) {
	fx := startScheduler(t, 50*time.Millisecond, 10*time.Millisecond)

	armed := time.Now()
	fx.store.SetInhibitor("coffee", false)

	waitFor(t, time.Second, func() bool { return fx.pc.suspendCount() == 1 },
		"expected exactly one suspend invocation")

	at, _ := fx.pc.firstSuspend()
	if elapsed := at.Sub(armed); elapsed < 50*time.Millisecond {
		t.Errorf("suspended too early: %v", elapsed)
	}
	if !fx.store.Suspended() {
		t.Error("wake marker must be set before the suspend call")
	}
	if got := fx.feed.Latest(); got.Active {
		t.Errorf("timer must be inactive after suspension: %+v", got)
	}

	// No second invocation for the same arming.
	time.Sleep(100 * time.Millisecond)
	if got := fx.pc.suspendCount(); got != 1 {
		t.Errorf("expected 1 suspend, got %d", got)
	}
}

func TestScheduler_ArmsOnlyOnAllInactive(t *testing.T) {
	fx := startScheduler(t, 30*time.Millisecond, 5*time.Millisecond)

	fx.store.SetInhibitor("coffee", true)
	time.Sleep(60 * time.Millisecond)

	if got := fx.pc.suspendCount(); got != 0 {
		t.Errorf("must not suspend while an inhibitor is active, got %d", got)
	}
	if got := fx.feed.Latest(); got.Active {
		t.Errorf("timer must stay inactive: %+v", got)
	}
}

func TestScheduler_CancelBeforeDeadline(t *testing.T) {
	fx := startScheduler(t, 80*time.Millisecond, 5*time.Millisecond)

	fx.store.SetInhibitor("coffee", false)
	waitFor(t, time.Second, func() bool { return fx.feed.Latest().Active },
		"countdown should have armed")

	fx.store.SetInhibitor("coffee", true)
	waitFor(t, time.Second, func() bool { return !fx.feed.Latest().Active },
		"timer status should go inactive within a tick of cancellation")

	// Wait well past the original deadline: no suspend for this arming.
	time.Sleep(150 * time.Millisecond)
	if got := fx.pc.suspendCount(); got != 0 {
		t.Errorf("cancelled countdown must never suspend, got %d", got)
	}
}

func TestScheduler_RepeatedInactiveSnapshotDoesNotRestartDeadline(t *testing.T) {
	fx := startScheduler(t, 60*time.Millisecond, 5*time.Millisecond)

	armed := time.Now()
	fx.store.SetInhibitor("coffee", false)
	waitFor(t, time.Second, func() bool { return fx.feed.Latest().Active },
		"countdown should have armed")

	// Another all-inactive snapshot mid-countdown must be a no-op.
	time.Sleep(30 * time.Millisecond)
	fx.store.SetInhibitor("other", false)

	waitFor(t, time.Second, func() bool { return fx.pc.suspendCount() == 1 },
		"countdown should still expire")
	at, _ := fx.pc.firstSuspend()
	if elapsed := at.Sub(armed); elapsed > 120*time.Millisecond {
		t.Errorf("deadline appears to have been restarted, expiry after %v", elapsed)
	}
}

func TestScheduler_FailedSuspendRecordsError(t *testing.T) {
	fx := startScheduler(t, 20*time.Millisecond, 5*time.Millisecond)
	fx.pc.suspendErr = errors.New("dbus timeout")

	fx.store.SetInhibitor("coffee", false)
	waitFor(t, time.Second, func() bool { return fx.pc.suspendCount() >= 1 },
		"suspend should have been attempted")

	waitFor(t, time.Second, func() bool {
		for _, e := range fx.store.Snapshot().Errors {
			if strings.Contains(e, "dbus timeout") {
				return true
			}
		}
		return false
	}, "failed suspend must append to the error log")
}

func TestScheduler_TimerStatusInvariant(t *testing.T) {
	fx := startScheduler(t, 40*time.Millisecond, 5*time.Millisecond)
	w := fx.feed.Watch()
	defer w.Close()

	fx.store.SetInhibitor("coffee", false)
	deadline := time.After(300 * time.Millisecond)
	for {
		select {
		case <-w.Changes():
			if got := w.Latest(); !got.Active && got.RemainingSeconds != 0 {
				t.Fatalf("inactive status with remaining seconds: %+v", got)
			}
		case <-deadline:
			return
		}
	}
}

func TestScheduler_SetDuration(t *testing.T) {
	fx := startScheduler(t, time.Hour, 5*time.Millisecond)

	fx.sched.SetDuration(25 * time.Millisecond)
	fx.store.SetInhibitor("coffee", false)

	waitFor(t, time.Second, func() bool { return fx.pc.suspendCount() == 1 },
		"updated duration should govern the next arming")
}
