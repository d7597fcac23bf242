package models

// Timestamp is an RTMP presentation timestamp in milliseconds. It is the
// publisher's clock and wraps modulo 2^32, so callers that need a
// duration between two timestamps must use modular subtraction rather
// than ordinary signed arithmetic.
type Timestamp = uint32

// Media is the tagged union of the two payload kinds a publishing
// connection can produce. Exactly one of the two constructors below is
// used to build a value; the zero value is never passed around.
type Media struct {
	kind      mediaKind
	Timestamp Timestamp
	Payload   []byte

	isSequenceHeader bool
	isKeyframe       bool
}

type mediaKind int

const (
	mediaH264 mediaKind = iota
	mediaAAC
)

// H264 wraps an FLV-tagged AVC video payload.
func H264(ts Timestamp, payload []byte, isSequenceHeader, isKeyframe bool) Media {
	return Media{
		kind:             mediaH264,
		Timestamp:        ts,
		Payload:          payload,
		isSequenceHeader: isSequenceHeader,
		isKeyframe:       isKeyframe,
	}
}

// AAC wraps an FLV-tagged AAC audio payload.
func AAC(ts Timestamp, payload []byte, isSequenceHeader bool) Media {
	return Media{
		kind:             mediaAAC,
		Timestamp:        ts,
		Payload:          payload,
		isSequenceHeader: isSequenceHeader,
	}
}

func (m Media) IsVideo() bool { return m.kind == mediaH264 }
func (m Media) IsAudio() bool { return m.kind == mediaAAC }

// IsSequenceHeader reports whether this packet carries codec
// configuration (AVC SPS/PPS or AAC AudioSpecificConfig) rather than
// decodable media.
func (m Media) IsSequenceHeader() bool { return m.isSequenceHeader }

// IsKeyframe reports whether this is a self-contained video frame.
// Always false for audio.
func (m Media) IsKeyframe() bool { return m.IsVideo() && m.isKeyframe }

// IsSendable reports whether a watcher who has not yet observed a
// keyframe may still receive this packet. Audio and sequence headers
// are sendable from any point; non-keyframe video is not.
func (m Media) IsSendable() bool {
	if m.isSequenceHeader {
		return true
	}
	if m.IsAudio() {
		return true
	}
	return m.isKeyframe
}
