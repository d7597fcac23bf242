package fanout

import (
	"sync"

	"javelin/internal/javelinerr"
	"javelin/internal/models"
)

// RepublishPolicy governs what happens when a second publisher arrives
// for an application that already has one.
type RepublishPolicy int

const (
	// PolicyReplace disconnects the current publisher and accepts the
	// new one.
	PolicyReplace RepublishPolicy = iota
	// PolicyDeny rejects the new publisher outright.
	PolicyDeny
)

// ParseRepublishPolicy maps the config string form (replace|deny) onto a
// RepublishPolicy, defaulting to PolicyReplace for anything unrecognized.
func ParseRepublishPolicy(s string) RepublishPolicy {
	if s == "deny" {
		return PolicyDeny
	}
	return PolicyReplace
}

type watcher struct {
	mailbox      Mailbox
	seenKeyframe bool
}

// Channel is a per-ApplicationName FanoutChannel: it holds the current
// publisher's identity and cached codec state, and the set of watcher
// mailboxes media is routed to. Grounded on
// _examples/original_source/javelin-core/src/session/instance.rs for the
// source/sinks split, generalized to spec.md §4.3's explicit operations.
type Channel struct {
	mu sync.Mutex

	hasPublisher bool
	publisher    models.ConnectionId
	publisherKey models.StreamKey

	metadata       models.Metadata
	videoSeqHeader []byte
	audioSeqHeader []byte

	watchers map[models.ConnectionId]*watcher
}

// NewChannel returns an empty fanout channel.
func NewChannel() *Channel {
	return &Channel{watchers: make(map[models.ConnectionId]*watcher)}
}

// SetPublisher installs conn as the channel's publisher. If a publisher
// is already present, policy decides whether it is replaced (in which
// case disconnect is invoked on the outgoing publisher's mailbox before
// this one takes over) or the request is denied.
func (c *Channel) SetPublisher(conn models.ConnectionId, key models.StreamKey, policy RepublishPolicy, peers *PeerTable) error {
	c.mu.Lock()

	if c.hasPublisher {
		if policy == PolicyDeny {
			c.mu.Unlock()
			return javelinerr.ErrRepublishDenied
		}

		previous := c.publisher
		c.unpublishLocked()
		c.mu.Unlock()

		peers.Disconnect(previous)

		c.mu.Lock()
	}

	c.hasPublisher = true
	c.publisher = conn
	c.publisherKey = key
	c.mu.Unlock()
	return nil
}

// Unpublish clears the publisher slot, metadata, and sequence headers.
// Watchers are intentionally left untouched: the next publisher's
// keyframe-gated stream reaches them without requiring a fresh Play
// request.
func (c *Channel) Unpublish() {
	c.mu.Lock()
	c.unpublishLocked()
	c.mu.Unlock()
}

func (c *Channel) unpublishLocked() {
	c.hasPublisher = false
	c.publisher = 0
	c.publisherKey = ""
	c.metadata = nil
	c.videoSeqHeader = nil
	c.audioSeqHeader = nil
}

// Publisher reports the current publisher, if any.
func (c *Channel) Publisher() (models.ConnectionId, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.publisher, c.hasPublisher
}

// SeqHeaders reports whether a video and/or audio sequence header is
// currently cached, for admin/metrics reporting.
func (c *Channel) SeqHeaders() (hasVideo, hasAudio bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.videoSeqHeader != nil, c.audioSeqHeader != nil
}

// AddWatcher registers mb to receive future Metadata/Media broadcasts
// and immediately replays any cached state so the new watcher starts
// from a decodable point.
func (c *Channel) AddWatcher(conn models.ConnectionId, mb Mailbox) {
	c.mu.Lock()
	c.watchers[conn] = &watcher{mailbox: mb}
	metadata := c.metadata
	video := c.videoSeqHeader
	audio := c.audioSeqHeader
	c.mu.Unlock()

	if metadata != nil {
		trySend(mb, MailboxMsg{Kind: KindMetadata, Metadata: metadata})
	}
	if video != nil {
		trySend(mb, MailboxMsg{Kind: KindMedia, Media: models.H264(0, video, true, false)})
	}
	if audio != nil {
		trySend(mb, MailboxMsg{Kind: KindMedia, Media: models.AAC(0, audio, true)})
	}
}

// RemoveWatcher drops conn from the watcher set.
func (c *Channel) RemoveWatcher(conn models.ConnectionId) {
	c.mu.Lock()
	delete(c.watchers, conn)
	c.mu.Unlock()
}

// Watchers returns a snapshot of currently registered watcher ids, for
// admin/metrics reporting.
func (c *Channel) Watchers() []models.ConnectionId {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ConnectionId, 0, len(c.watchers))
	for id := range c.watchers {
		out = append(out, id)
	}
	return out
}

// SetMetadata overwrites the cached metadata and broadcasts it to every
// current watcher.
func (c *Channel) SetMetadata(m models.Metadata) {
	c.mu.Lock()
	c.metadata = m
	mailboxes := c.watcherMailboxesLocked()
	c.mu.Unlock()

	for _, mb := range mailboxes {
		trySend(mb, MailboxMsg{Kind: KindMetadata, Metadata: m})
	}
}

func (c *Channel) watcherMailboxesLocked() []Mailbox {
	out := make([]Mailbox, 0, len(c.watchers))
	for _, w := range c.watchers {
		out = append(out, w.mailbox)
	}
	return out
}

// RouteMedia implements the sequence-header caching, keyframe-gating,
// and delivery logic of spec.md §4.3 step 3. Sequence headers are
// cached and never broadcast; late joiners receive them via AddWatcher's
// replay instead.
func (c *Channel) RouteMedia(media models.Media) {
	c.mu.Lock()

	if media.IsSequenceHeader() {
		if media.IsVideo() {
			c.videoSeqHeader = media.Payload
		} else {
			c.audioSeqHeader = media.Payload
		}
		c.mu.Unlock()
		return
	}

	type target struct {
		id models.ConnectionId
		w  *watcher
	}
	targets := make([]target, 0, len(c.watchers))
	for id, w := range c.watchers {
		targets = append(targets, target{id, w})
	}
	c.mu.Unlock()

	msg := MailboxMsg{Kind: KindMedia, Media: media}

	var dead []models.ConnectionId
	for _, t := range targets {
		if !t.w.seenKeyframe && !media.IsSendable() {
			continue
		}
		if media.IsVideo() && media.IsKeyframe() {
			t.w.seenKeyframe = true
		}
		if !trySend(t.w.mailbox, msg) {
			dead = append(dead, t.id)
		}
	}

	if len(dead) > 0 {
		c.mu.Lock()
		for _, id := range dead {
			delete(c.watchers, id)
		}
		c.mu.Unlock()
	}
}
