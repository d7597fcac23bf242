package fanout

import (
	"sync"

	"javelin/internal/models"
)

// Registry maps ApplicationName to its Channel. Entries are created on
// first subscribe or publish and live for the process lifetime, per
// spec.md §3 -- a channel's publisher and watchers can become empty but
// the entry itself is never garbage collected.
type Registry struct {
	mu       sync.RWMutex
	channels map[models.ApplicationName]*Channel
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[models.ApplicationName]*Channel)}
}

// GetOrCreate returns the Channel for app, creating it if this is the
// first reference.
func (r *Registry) GetOrCreate(app models.ApplicationName) *Channel {
	r.mu.RLock()
	ch, ok := r.channels[app]
	r.mu.RUnlock()
	if ok {
		return ch
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.channels[app]; ok {
		return ch
	}
	ch = NewChannel()
	r.channels[app] = ch
	return ch
}

// Get returns the Channel for app without creating one.
func (r *Registry) Get(app models.ApplicationName) (*Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[app]
	return ch, ok
}

// Snapshot describes a single application's fanout state for admin
// reporting.
type Snapshot struct {
	App               models.ApplicationName
	HasPublisher      bool
	Publisher         models.ConnectionId
	WatcherCount      int
	HasVideoSeqHeader bool
	HasAudioSeqHeader bool
}

// Snapshot returns a point-in-time view of every known application.
func (r *Registry) Snapshot() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Snapshot, 0, len(r.channels))
	for app, ch := range r.channels {
		pub, has := ch.Publisher()
		hasVideo, hasAudio := ch.SeqHeaders()
		out = append(out, Snapshot{
			App:               app,
			HasPublisher:      has,
			Publisher:         pub,
			WatcherCount:      len(ch.Watchers()),
			HasVideoSeqHeader: hasVideo,
			HasAudioSeqHeader: hasAudio,
		})
	}
	return out
}
