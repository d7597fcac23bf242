package hls

import (
	"fmt"
	"strings"
	"testing"

	"javelin/internal/models"
)

// fakeStorage is an in-memory storage.Storage stub for exercising the
// segmenter without touching a real filesystem.
type fakeStorage struct {
	files map[string][]byte
	dirs  map[string]bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{files: make(map[string][]byte), dirs: map[string]bool{".": true}}
}

func (f *fakeStorage) Write(path string, data []byte) error {
	f.files[path] = append([]byte(nil), data...)
	return nil
}
func (f *fakeStorage) Delete(path string) error {
	delete(f.files, path)
	return nil
}
func (f *fakeStorage) ListEntries(dir string) ([]string, error) { return nil, nil }
func (f *fakeStorage) EnsureDir(path string) error {
	f.dirs[path] = true
	return nil
}
func (f *fakeStorage) RemoveAll(path string) error {
	delete(f.dirs, path)
	return nil
}
func (f *fakeStorage) IsDir(path string) (bool, error) { return f.dirs[path], nil }

func TestSegmenterWritesSevenSegmentsOverFourteenSeconds(t *testing.T) {
	store := newFakeStorage()
	reaper := NewReaper(store, nil)
	seg, err := New(store, reaper, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sink, _ := seg.RegisterApp("live")

	for i := uint32(0); i <= 14000; i += 2000 {
		sink(models.H264(i, []byte{0x00, 0x00, 0x00, 0x01, 0x65, 0xAA}, false, true))
	}

	count := 0
	for path := range store.files {
		if path[:5] == "live/" && strings.HasSuffix(path, ".ts") {
			count++
		}
	}
	if count != 7 {
		t.Fatalf("expected 7 written segments across 8 keyframes, got %d (files: %v)", count, keys(store.files))
	}
}

func TestSegmenterTargetDurationSetOnSecondKeyframe(t *testing.T) {
	store := newFakeStorage()
	reaper := NewReaper(store, nil)
	seg, err := New(store, reaper, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sink, _ := seg.RegisterApp("live")
	sink(models.H264(0, []byte{0x65}, false, true))
	sink(models.H264(2000, []byte{0x65}, false, true))

	playlist, ok := seg.Playlist("live")
	if !ok {
		t.Fatal("expected a writer to exist for live after publishing")
	}
	want := fmt.Sprintf("#EXT-X-TARGETDURATION:%d\n", 6)
	if !strings.Contains(playlist, want) {
		t.Fatalf("target duration not set on second keyframe, playlist:\n%s", playlist)
	}
}

func TestSegmenterSkipsAudioBeforeFirstKeyframe(t *testing.T) {
	store := newFakeStorage()
	reaper := NewReaper(store, nil)
	seg, err := New(store, reaper, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sink, _ := seg.RegisterApp("live")
	sink(models.AAC(0, []byte{0xAA}, false))

	seg.mu.Lock()
	w := seg.writers["live"]
	seg.mu.Unlock()
	if len(w.buffer.bytes()) != 0 {
		t.Fatal("audio arriving before the first keyframe must be discarded")
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
