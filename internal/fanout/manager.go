package fanout

import (
	"log"

	"javelin/internal/auth"
	"javelin/internal/javelinerr"
	"javelin/internal/metrics"
	"javelin/internal/models"
)

// HLSRegistrar is the HLS writer's half of register_hls (spec.md §4.4):
// given an application name, it returns a sink that the publishing
// connection feeds Media into for the lifetime of its publishing state,
// and a function to tear that sink down when the publisher finishes.
type HLSRegistrar interface {
	RegisterApp(app models.ApplicationName) (sink func(models.Media), release func())
}

// Manager is the process-wide session manager: the single owner of the
// Registry, the AuthTable, and the cross-connection peer map. Grounded
// on _examples/original_source/javelin-core/src/session/manager.rs's
// SessionManager, but implemented as a synchronized Go struct rather
// than a literal channel-driven actor -- each piece of shared state
// already carries the reader-writer lock spec.md §5 calls for, which is
// the idiomatic Go rendition of "single owner, briefly-held lock"
// (matching the teacher's own streammanager.Manager).
type Manager struct {
	registry  *Registry
	authTable *auth.Table
	peers     *PeerTable
	republish RepublishPolicy
	hls       HLSRegistrar
	metrics   *metrics.Metrics
}

// NewManager wires a session manager over the given auth table, republish
// policy, and HLS registrar. metrics may be nil.
func NewManager(authTable *auth.Table, republish RepublishPolicy, hls HLSRegistrar, m *metrics.Metrics) *Manager {
	return &Manager{
		registry:  NewRegistry(),
		authTable: authTable,
		peers:     NewPeerTable(),
		republish: republish,
		hls:       hls,
		metrics:   m,
	}
}

// Registry exposes the underlying registry for admin reporting.
func (m *Manager) Registry() *Registry { return m.registry }

// RegisterPeer records conn's mailbox so other connections can reach it
// (e.g. to deliver Disconnect on republish).
func (m *Manager) RegisterPeer(conn models.ConnectionId, mb Mailbox) {
	m.peers.Register(conn, mb)
}

// DeregisterPeer removes conn from the peer table, typically when its
// Connection actor shuts down.
func (m *Manager) DeregisterPeer(conn models.ConnectionId) {
	m.peers.Deregister(conn)
}

// Authenticate implements spec.md §4.4's Authenticate handling: an empty
// key is always rejected; an unknown application is always rejected;
// otherwise the key must match the AuthTable entry for app.
func (m *Manager) Authenticate(app models.ApplicationName, key models.StreamKey) error {
	if key == "" {
		return javelinerr.ErrEmptyStreamKey
	}
	if !m.authTable.Has(app) {
		return javelinerr.ErrUnknownApplication
	}
	if !m.authTable.Authenticate(app, key) {
		return javelinerr.ErrUnpermittedStreamKey
	}
	return nil
}

// RegisterSource installs conn as app's publisher, honoring the
// configured republish policy, and wires up the HLS sink for app. It
// returns the media sink the caller's Connection actor should feed
// publishing data into, and a release func to call when publishing ends.
func (m *Manager) RegisterSource(conn models.ConnectionId, app models.ApplicationName, key models.StreamKey) (sink func(models.Media), release func(), err error) {
	ch := m.registry.GetOrCreate(app)
	if err := ch.SetPublisher(conn, key, m.republish, m.peers); err != nil {
		return nil, nil, err
	}

	var hlsSink func(models.Media)
	var hlsRelease func()
	if m.hls != nil {
		hlsSink, hlsRelease = m.hls.RegisterApp(app)
	}

	if m.metrics != nil {
		m.metrics.RecordPublishStart()
	}

	sink = func(media models.Media) {
		if m.metrics != nil {
			m.metrics.RecordFrame(app, media.IsVideo(), len(media.Payload))
			if media.IsKeyframe() {
				m.metrics.RecordKeyFrame()
			}
		}
		ch.RouteMedia(media)
		if hlsSink != nil {
			hlsSink(media)
		}
	}
	release = func() {
		ch.Unpublish()
		if hlsRelease != nil {
			hlsRelease()
		}
		if m.metrics != nil {
			m.metrics.RecordPublishStop()
		}
	}
	return sink, release, nil
}

// RegisterSink adds conn as a watcher of app and replays any cached
// metadata/sequence headers to it.
func (m *Manager) RegisterSink(conn models.ConnectionId, app models.ApplicationName, mb Mailbox) {
	ch := m.registry.GetOrCreate(app)
	ch.AddWatcher(conn, mb)
	if m.metrics != nil {
		m.metrics.RecordWatcherJoin()
	}
}

// FinishSource clears app's publisher slot (Finished from a publisher).
func (m *Manager) FinishSource(app models.ApplicationName) {
	if ch, ok := m.registry.Get(app); ok {
		ch.Unpublish()
	}
}

// FinishSink removes conn as a watcher of app (Finished from a watcher).
func (m *Manager) FinishSink(conn models.ConnectionId, app models.ApplicationName) {
	if ch, ok := m.registry.Get(app); ok {
		ch.RemoveWatcher(conn)
		if m.metrics != nil {
			m.metrics.RecordWatcherLeave()
		}
	}
}

// SetMetadata overwrites and broadcasts app's cached metadata.
func (m *Manager) SetMetadata(app models.ApplicationName, metadata models.Metadata) {
	ch := m.registry.GetOrCreate(app)
	ch.SetMetadata(metadata)
}

// logUnhandled matches spec.md §4.2's "all other events: ignored with a
// debug log".
func logUnhandled(event string) {
	log.Printf("fanout: unhandled event %s", event)
}
