package fanout

import (
	"testing"

	"javelin/internal/models"
)

func TestTrySendDeliversWhenRoom(t *testing.T) {
	mb := make(Mailbox, 1)
	ok := trySend(mb, MailboxMsg{Kind: KindDisconnect})
	if !ok {
		t.Fatal("trySend must succeed into an empty mailbox")
	}
	if len(mb) != 1 {
		t.Fatalf("mailbox len = %d, want 1", len(mb))
	}
}

func TestTrySendDropsDroppableVideoUnderBackpressure(t *testing.T) {
	mb := make(Mailbox, 1)
	mb <- MailboxMsg{Kind: KindRaw}

	pFrame := MailboxMsg{Kind: KindMedia, Media: models.H264(40, nil, false, false)}
	if ok := trySend(mb, pFrame); ok {
		t.Fatal("a full non-keyframe video send must report false")
	}
	if len(mb) != 1 {
		t.Fatalf("the queued entry must survive a dropped send, len = %d", len(mb))
	}
}

func TestTrySendEvictsOldestForNonDroppable(t *testing.T) {
	mb := make(Mailbox, 1)
	mb <- MailboxMsg{Kind: KindRaw, Raw: []byte("stale")}

	disconnect := MailboxMsg{Kind: KindDisconnect}
	if ok := trySend(mb, disconnect); !ok {
		t.Fatal("Disconnect must never be dropped even under backpressure")
	}

	got := <-mb
	if got.Kind != KindDisconnect {
		t.Fatalf("expected the evicting Disconnect to have been queued, got kind %v", got.Kind)
	}
}

func TestNewMailboxCapacity(t *testing.T) {
	mb := NewMailbox()
	if cap(mb) != mailboxCapacity {
		t.Fatalf("NewMailbox() cap = %d, want %d", cap(mb), mailboxCapacity)
	}
}
