// Package rtmpproto implements the per-connection protocol state
// machine spec.md §4.2 calls for, sitting on top of yutopp/go-rtmp --
// the third-party chunk codec and handshake engine spec.md §1 treats as
// an external collaborator. The state machine itself, the internal
// message vocabulary, and the translation between RTMP session events
// and that vocabulary are this package's job, grounded on
// _examples/adarshm11-RapidRTMP/internal/rtmp/server.go for the handler
// shape and _examples/original_source/src/rtmp/proto/{protocol,session}.rs
// for the states and event dispatch.
package rtmpproto

import "javelin/internal/models"

// State mirrors spec.md §4.2's state machine. yutopp/go-rtmp owns the
// handshake itself, so HandshakePending is implicit (the Handler isn't
// constructed, and OnConnect isn't called, until the library completes
// it); Initialized is the state a freshly connected Handler starts in.
type State int

const (
	StateInitialized State = iota
	StatePublishing
	StatePlaying
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StatePublishing:
		return "publishing"
	case StatePlaying:
		return "playing"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// ConnectionInfo is what the Handler knows about its own connection once
// a publish or play request has been accepted.
type ConnectionInfo struct {
	ID    models.ConnectionId
	App   models.ApplicationName
	Key   models.StreamKey   // only meaningful while Publishing
	Strm  uint32             // StreamId, only meaningful while Playing
	State State
}
