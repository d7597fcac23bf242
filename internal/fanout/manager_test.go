package fanout

import (
	"testing"

	"javelin/internal/auth"
	"javelin/internal/javelinerr"
	"javelin/internal/models"
)

func newTestManager(policy RepublishPolicy) *Manager {
	table := auth.NewTable(map[string]string{"live": "secret"})
	return NewManager(table, policy, nil, nil)
}

func TestManagerAuthenticate(t *testing.T) {
	m := newTestManager(PolicyReplace)

	cases := []struct {
		name    string
		app     string
		key     string
		wantErr error
	}{
		{"valid", "live", "secret", nil},
		{"empty key rejected before lookup", "live", "", javelinerr.ErrEmptyStreamKey},
		{"unknown application", "unknown", "secret", javelinerr.ErrUnknownApplication},
		{"wrong key", "live", "wrong", javelinerr.ErrUnpermittedStreamKey},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := m.Authenticate(tc.app, tc.key); err != tc.wantErr {
				t.Errorf("Authenticate(%q, %q) = %v, want %v", tc.app, tc.key, err, tc.wantErr)
			}
		})
	}
}

func TestManagerRegisterSourceRoutesToWatchers(t *testing.T) {
	m := newTestManager(PolicyReplace)

	sink, release, err := m.RegisterSource(1, "live", "secret")
	if err != nil {
		t.Fatalf("RegisterSource: %v", err)
	}

	mb := NewMailbox()
	m.RegisterSink(2, "live", mb)

	sink(models.H264(0, []byte{0x01}, false, true))

	msg := <-mb
	if msg.Kind != KindMedia || !msg.Media.IsKeyframe() {
		t.Fatalf("watcher did not receive the routed keyframe, got %+v", msg)
	}

	release()
	pub, ok := m.Registry().GetOrCreate("live").Publisher()
	if ok {
		t.Fatalf("release() must clear the publisher slot, got %v", pub)
	}
}

func TestManagerRegisterSourceDenyPolicy(t *testing.T) {
	m := newTestManager(PolicyDeny)

	_, _, err := m.RegisterSource(1, "live", "secret")
	if err != nil {
		t.Fatalf("first RegisterSource: %v", err)
	}
	_, _, err = m.RegisterSource(2, "live", "secret")
	if err != javelinerr.ErrRepublishDenied {
		t.Fatalf("second RegisterSource under PolicyDeny = %v, want ErrRepublishDenied", err)
	}
}

func TestManagerFinishSinkRemovesWatcher(t *testing.T) {
	m := newTestManager(PolicyReplace)
	mb := NewMailbox()
	m.RegisterSink(2, "live", mb)
	m.FinishSink(2, "live")

	ch, ok := m.Registry().Get("live")
	if !ok {
		t.Fatal("channel must exist after RegisterSink")
	}
	if watchers := ch.Watchers(); len(watchers) != 0 {
		t.Fatalf("FinishSink must remove the watcher, got %v", watchers)
	}
}
