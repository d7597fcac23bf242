package models

import "testing"

func TestH264Predicates(t *testing.T) {
	cases := []struct {
		name             string
		media            Media
		wantVideo        bool
		wantKeyframe     bool
		wantSendable     bool
		wantSeqHeader    bool
	}{
		{"sequence header", H264(0, []byte{0x01}, true, false), true, false, true, true},
		{"keyframe", H264(0, []byte{0x02}, false, true), true, true, true, false},
		{"p-frame", H264(40, []byte{0x03}, false, false), true, false, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.media.IsVideo(); got != tc.wantVideo {
				t.Errorf("IsVideo() = %v, want %v", got, tc.wantVideo)
			}
			if got := tc.media.IsKeyframe(); got != tc.wantKeyframe {
				t.Errorf("IsKeyframe() = %v, want %v", got, tc.wantKeyframe)
			}
			if got := tc.media.IsSendable(); got != tc.wantSendable {
				t.Errorf("IsSendable() = %v, want %v", got, tc.wantSendable)
			}
			if got := tc.media.IsSequenceHeader(); got != tc.wantSeqHeader {
				t.Errorf("IsSequenceHeader() = %v, want %v", got, tc.wantSeqHeader)
			}
		})
	}
}

func TestAACAlwaysSendable(t *testing.T) {
	frame := AAC(100, []byte{0xAA}, false)
	if !frame.IsSendable() {
		t.Fatal("audio frames must be sendable from any point")
	}
	if frame.IsVideo() {
		t.Fatal("AAC() must not report IsVideo")
	}
	if frame.IsKeyframe() {
		t.Fatal("audio has no keyframe concept")
	}
}

func TestMetadataClone(t *testing.T) {
	var nilMeta Metadata
	if nilMeta.Clone() != nil {
		t.Fatal("Clone of nil metadata must stay nil")
	}

	m := Metadata{"width": 1920}
	clone := m.Clone()
	clone["width"] = 1280
	if m["width"] != 1920 {
		t.Fatal("Clone must not alias the original map")
	}
}
