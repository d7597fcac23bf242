package hls

import (
	"strings"
	"testing"
)

func TestAddMediaSegmentEvictsBeyondWindow(t *testing.T) {
	var evicted []Segment
	p := NewPlaylist(func(s Segment) { evicted = append(evicted, s) })

	for i := 0; i < Window+2; i++ {
		p.AddMediaSegment(string(rune('a'+i)), 2000)
	}

	if len(evicted) != 2 {
		t.Fatalf("expected 2 evictions beyond the window, got %d", len(evicted))
	}
	if evicted[0].Filename != "a" || evicted[1].Filename != "b" {
		t.Fatalf("eviction must happen oldest-first, got %+v", evicted)
	}
}

func TestRenderIncludesTargetDurationAndSequence(t *testing.T) {
	p := NewPlaylist(nil)
	p.SetTargetDuration(6000)
	p.AddMediaSegment("seg-1.ts", 2000)
	p.AddMediaSegment("seg-2.ts", 2000)

	out := p.Render()

	if !strings.Contains(out, "#EXT-X-TARGETDURATION:6\n") {
		t.Errorf("Render() missing target duration line:\n%s", out)
	}
	if !strings.Contains(out, "#EXT-X-MEDIA-SEQUENCE:0\n") {
		t.Errorf("Render() missing media sequence line:\n%s", out)
	}
	if !strings.Contains(out, "#EXTINF:2.000,\nseg-1.ts\n") {
		t.Errorf("Render() missing first segment entry:\n%s", out)
	}
}

func TestRenderMediaSequenceAdvancesAfterEviction(t *testing.T) {
	p := NewPlaylist(nil)
	for i := 0; i < Window+1; i++ {
		p.AddMediaSegment(string(rune('a'+i)), 2000)
	}

	out := p.Render()
	if !strings.Contains(out, "#EXT-X-MEDIA-SEQUENCE:1\n") {
		t.Errorf("Render() media sequence did not advance after one eviction:\n%s", out)
	}
}
