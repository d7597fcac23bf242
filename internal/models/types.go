package models

// ApplicationName identifies a logical stream, e.g. "live".
type ApplicationName = string

// StreamKey authenticates a publisher for a given ApplicationName.
type StreamKey = string

// ConnectionId is a process-unique, monotonically increasing id assigned
// by the acceptor.
type ConnectionId = uint64

// Metadata is an opaque, clone-cheap record of RTMP stream metadata
// (width, height, codec, ...) as reported by onMetaData.
type Metadata map[string]interface{}

// Clone returns a shallow copy safe to hand to a second owner; the RTMP
// metadata values themselves (numbers, strings, bools) are immutable.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Packet is an RTMP chunk-encoded unit ready for the wire. Droppable
// packets (e.g. audio under backpressure) may be discarded by a mailbox
// that would otherwise grow without bound.
type Packet struct {
	Droppable bool
	Payload   []byte
}
