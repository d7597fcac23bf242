package fanout

import "javelin/internal/models"

// MailboxKind tags the payload carried by a connection's inbound mailbox.
// A Connection actor's mailbox carries more than raw bytes: Metadata and
// Media arrive here too, so the actor can run them through its own
// Protocol.HandleMessage without another goroutine touching that
// Protocol instance (ownership stays with the actor that owns it).
type MailboxKind int

const (
	KindRaw MailboxKind = iota
	KindDisconnect
	KindMetadata
	KindMedia
)

// MailboxMsg is the single envelope type sent down every connection's
// inbound mailbox, grounded on the original bus::Message plus the
// Raw(bytes)|Disconnect variants spec.md §4.5 names for the Connection
// actor's mailbox.
type MailboxMsg struct {
	Kind     MailboxKind
	Raw      []byte
	Metadata models.Metadata
	Media    models.Media
}

// mailboxCapacity bounds a watcher mailbox so one slow player can't grow
// memory without bound; §5 recommends ~1024 entries with droppable items
// discarded first.
const mailboxCapacity = 1024

// Mailbox is the send side of a connection actor's inbound queue.
type Mailbox chan MailboxMsg

// NewMailbox allocates a bounded mailbox for one connection actor.
func NewMailbox() Mailbox {
	return make(Mailbox, mailboxCapacity)
}

// trySend delivers msg without blocking. Droppable media is dropped
// silently under backpressure; everything else falls back to dropping
// the oldest queued entry to make room, since Disconnect and sequence
// data must not be lost.
func trySend(mb Mailbox, msg MailboxMsg) bool {
	select {
	case mb <- msg:
		return true
	default:
	}

	if msg.Kind == KindMedia && msg.Media.IsVideo() && !msg.Media.IsKeyframe() && !msg.Media.IsSequenceHeader() {
		return false
	}

	select {
	case <-mb:
	default:
	}

	select {
	case mb <- msg:
		return true
	default:
		return false
	}
}
