package hls

import (
	"fmt"
	"strings"
	"sync"
)

// Window is the maximum number of segment entries a Playlist retains,
// matching spec.md §3's W (default 6).
const Window = 6

// Segment is spec.md's HlsSegment: a single MPEG-TS file and the
// duration it spans.
type Segment struct {
	Filename   string
	DurationMs uint32
}

// Playlist is an ordered, bounded sequence of Segment entries plus the
// EXT-X-TARGETDURATION and EXT-X-MEDIA-SEQUENCE bookkeeping spec.md §6
// requires. Grounded on the rolling behavior of
// _examples/original_source/src/hls/writer.rs's Playlist field; the
// exact EXTM3U serialization follows spec.md §6 directly since no m3u8
// writer shipped in the retrieval pack.
type Playlist struct {
	mu sync.Mutex

	targetDurationMs uint32
	evictedCount     uint64
	segments         []Segment

	onEvict func(Segment)
}

// NewPlaylist returns an empty playlist. onEvict, if non-nil, is called
// with every segment pushed out of the window so the caller can hand it
// to the reaper.
func NewPlaylist(onEvict func(Segment)) *Playlist {
	return &Playlist{onEvict: onEvict}
}

// SetTargetDuration sets the EXT-X-TARGETDURATION value, only meaningful
// the first time it's called (on the second keyframe, per §4.6).
func (p *Playlist) SetTargetDuration(ms uint32) {
	p.mu.Lock()
	p.targetDurationMs = ms
	p.mu.Unlock()
}

// AddMediaSegment appends a new segment, advancing the media sequence
// number and evicting the oldest entry once the window is exceeded.
func (p *Playlist) AddMediaSegment(filename string, durationMs uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.segments = append(p.segments, Segment{Filename: filename, DurationMs: durationMs})

	if len(p.segments) > Window {
		evicted := p.segments[0]
		p.segments = p.segments[1:]
		p.evictedCount++
		if p.onEvict != nil {
			p.onEvict(evicted)
		}
	}
}

// Render serializes the current window as an EXTM3U live playlist per
// spec.md §6.
func (p *Playlist) Render() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:3\n")
	fmt.Fprintf(&b, "#EXT-X-TARGETDURATION:%d\n", (p.targetDurationMs+999)/1000)
	fmt.Fprintf(&b, "#EXT-X-MEDIA-SEQUENCE:%d\n", p.evictedCount)

	for _, seg := range p.segments {
		fmt.Fprintf(&b, "#EXTINF:%.3f,\n%s\n", float64(seg.DurationMs)/1000.0, seg.Filename)
	}

	return b.String()
}
