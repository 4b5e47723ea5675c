package state

import "testing"

func snapshotWith(name string) Snapshot {
	return Snapshot{Inhibitors: map[string]bool{name: true}}
}

func TestBus_DeliversInPublishOrder(t *testing.T) {
	b := newBus()
	sub := b.subscribe()
	defer sub.Close()

	names := []string{"a", "b", "c"}
	for _, n := range names {
		b.publish(snapshotWith(n))
	}

	for _, want := range names {
		got := <-sub.C()
		if !got.Active(want) {
			t.Fatalf("out of order delivery, expected %q in %+v", want, got)
		}
	}
	if sub.TakeLagged() {
		t.Error("subscription lagged without overflow")
	}
}

func TestBus_PublishWithoutSubscribersIsNoop(t *testing.T) {
	b := newBus()
	b.publish(snapshotWith("a")) // must not block or panic
}

func TestBus_SubscriberOnlySeesLaterSnapshots(t *testing.T) {
	b := newBus()
	b.publish(snapshotWith("before"))

	sub := b.subscribe()
	defer sub.Close()
	b.publish(snapshotWith("after"))

	if got := len(sub.ch); got != 1 {
		t.Fatalf("expected only 1 snapshot, got %d", got)
	}
	if got := <-sub.C(); !got.Active("after") {
		t.Errorf("expected the post-subscribe snapshot, got %+v", got)
	}
}

func TestBus_LagSignalAndResync(t *testing.T) {
	b := newBus()
	sub := b.subscribe()
	defer sub.Close()

	// Overflow the buffer without reading.
	for i := 0; i < subscriptionBuffer+5; i++ {
		b.publish(snapshotWith("x"))
	}

	if !sub.TakeLagged() {
		t.Fatal("expected the subscription to report a delivery gap")
	}
	if got := len(sub.ch); got != 0 {
		t.Errorf("stale snapshots must be discarded on lag, %d left", got)
	}
	if sub.TakeLagged() {
		t.Error("lag flag must clear after being taken")
	}

	// Delivery resumes normally after the gap.
	b.publish(snapshotWith("fresh"))
	if got := <-sub.C(); !got.Active("fresh") {
		t.Errorf("expected post-lag snapshot, got %+v", got)
	}
}

func TestBus_CloseStopsDelivery(t *testing.T) {
	b := newBus()
	sub := b.subscribe()

	b.publish(snapshotWith("a"))
	sub.Close()
	b.publish(snapshotWith("b"))

	if got := len(sub.ch); got != 1 {
		t.Errorf("expected only the pre-close snapshot, got %d", got)
	}
}

func TestBus_SlowSubscriberDoesNotBlockOthers(t *testing.T) {
	b := newBus()
	slow := b.subscribe()
	fast := b.subscribe()
	defer slow.Close()
	defer fast.Close()

	for i := 0; i < subscriptionBuffer+1; i++ {
		b.publish(snapshotWith("x"))
		<-fast.C()
	}

	if !slow.TakeLagged() {
		t.Error("slow subscriber should have lagged")
	}
	if fast.TakeLagged() {
		t.Error("fast subscriber must not lag")
	}
}
