package fanout

import "testing"

func TestGetOrCreateReturnsSameChannel(t *testing.T) {
	r := NewRegistry()
	a := r.GetOrCreate("live")
	b := r.GetOrCreate("live")
	if a != b {
		t.Fatal("GetOrCreate must return the same *Channel for the same app")
	}
}

func TestGetMissingReportsFalse(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Get("live"); ok {
		t.Fatal("Get on an unknown app must report false")
	}
}

func TestSnapshotReflectsPublisherAndWatchers(t *testing.T) {
	r := NewRegistry()
	ch := r.GetOrCreate("live")
	peers := NewPeerTable()
	if err := ch.SetPublisher(7, "key", PolicyReplace, peers); err != nil {
		t.Fatalf("SetPublisher: %v", err)
	}
	ch.AddWatcher(9, NewMailbox())

	snaps := r.Snapshot()
	if len(snaps) != 1 {
		t.Fatalf("Snapshot() len = %d, want 1", len(snaps))
	}
	snap := snaps[0]
	if snap.App != "live" || !snap.HasPublisher || snap.Publisher != 7 || snap.WatcherCount != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}
