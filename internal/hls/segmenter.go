// Package hls implements the keyframe-driven MPEG-TS segmenter,
// Playlist, and file reaper of spec.md §4.6/§4.7, grounded on
// _examples/adarshm11-RapidRTMP/internal/segmenter/segmenter.go for the
// Segmenter/per-stream-writer split and on
// _examples/original_source/src/hls/writer.rs for the exact
// segmentation algorithm.
package hls

import (
	"fmt"
	"log"
	"sync"
	"time"

	"javelin/internal/javelinerr"
	"javelin/internal/metrics"
	"javelin/internal/models"
	"javelin/internal/storage"
)

// writeInterval is the target segment duration in milliseconds, per
// spec.md §4.6.
const writeInterval uint32 = 2000

// Segmenter owns one Writer per publishing application. It implements
// fanout.HLSRegistrar so the session manager can wire a publisher's
// media path straight into it.
type Segmenter struct {
	store   storage.Storage
	reaper  *Reaper
	metrics *metrics.Metrics

	mu      sync.Mutex
	writers map[models.ApplicationName]*Writer
}

// New validates hls_root (fatal if it exists and is not a directory),
// purges any stale contents, and returns a ready Segmenter. m may be nil.
func New(store storage.Storage, reaper *Reaper, m *metrics.Metrics) (*Segmenter, error) {
	isDir, err := store.IsDir(".")
	if err != nil {
		return nil, err
	}
	if !isDir {
		return nil, fmt.Errorf("hls root: %w", javelinerr.ErrInvalidHlsRoot)
	}

	entries, err := store.ListEntries(".")
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if err := store.RemoveAll(e); err != nil {
			log.Printf("hls: failed to purge stale entry %s: %v", e, err)
		}
	}

	return &Segmenter{
		store:   store,
		reaper:  reaper,
		metrics: m,
		writers: make(map[models.ApplicationName]*Writer),
	}, nil
}

// RegisterApp implements fanout.HLSRegistrar: it creates (or reuses) the
// Writer for app and returns a sink/release pair scoped to one
// publishing session.
func (s *Segmenter) RegisterApp(app models.ApplicationName) (sink func(models.Media), release func()) {
	s.mu.Lock()
	w, ok := s.writers[app]
	if !ok {
		var err error
		w, err = newWriter(s.store, s.reaper, s.metrics, app)
		if err != nil {
			s.mu.Unlock()
			log.Printf("hls: failed to start writer for %s: %v", app, err)
			return func(models.Media) {}, func() {}
		}
		s.writers[app] = w
	}
	s.mu.Unlock()

	return w.handle, func() {}
}

// Playlist returns the current rendered playlist for app, if a writer
// exists for it.
func (s *Segmenter) Playlist(app models.ApplicationName) (string, bool) {
	s.mu.Lock()
	w, ok := s.writers[app]
	s.mu.Unlock()
	if !ok {
		return "", false
	}
	return w.playlist.Render(), true
}

// Writer is one application's HLS segmenting state, implementing the
// exact algorithm of spec.md §4.6.
type Writer struct {
	mu sync.Mutex

	store     storage.Storage
	reaper    *Reaper
	metrics   *metrics.Metrics
	streamDir string

	nextWrite       uint32
	lastKeyframe    uint32
	keyframeCounter uint32
	targetSet       bool

	buffer   *tsBuffer
	playlist *Playlist
}

func newWriter(store storage.Storage, reaper *Reaper, m *metrics.Metrics, app models.ApplicationName) (*Writer, error) {
	streamDir := app

	isDir, err := store.IsDir(streamDir)
	if err != nil {
		return nil, err
	}
	if !isDir {
		if err := store.EnsureDir(streamDir); err != nil {
			return nil, fmt.Errorf("%w: %v", javelinerr.ErrDirectoryCreationFailed, err)
		}
	}

	w := &Writer{
		store:     store,
		reaper:    reaper,
		metrics:   m,
		streamDir: streamDir,
		nextWrite: writeInterval,
		buffer:    newTsBuffer(),
	}
	w.playlist = NewPlaylist(w.onEvict)
	return w, nil
}

func (w *Writer) onEvict(seg Segment) {
	delay := time.Duration(seg.DurationMs) * time.Millisecond
	w.reaper.Submit(delay, w.streamDir+"/"+seg.Filename)
}

func (w *Writer) handle(media models.Media) {
	if media.IsVideo() {
		w.handleH264(media)
	} else {
		w.handleAAC(media)
	}
}

func (w *Writer) handleH264(media models.Media) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if media.IsSequenceHeader() {
		return
	}

	if media.IsKeyframe() {
		kfDuration := media.Timestamp - w.lastKeyframe // modular subtraction per §9(c)

		if w.keyframeCounter == 1 {
			w.playlist.SetTargetDuration(kfDuration * 3)
			w.targetSet = true
		}

		if media.Timestamp >= w.nextWrite {
			filename := fmt.Sprintf("%d-%d.ts", unixSeconds(), w.keyframeCounter)
			path := w.streamDir + "/" + filename

			segBytes := w.buffer.bytes()
			if err := w.store.Write(path, segBytes); err != nil {
				log.Printf("hls: %v: %v", javelinerr.ErrWriteError, err)
			} else {
				w.playlist.AddMediaSegment(filename, kfDuration)
				if err := w.store.Write(w.streamDir+"/playlist.m3u8", []byte(w.playlist.Render())); err != nil {
					log.Printf("hls: %v: %v", javelinerr.ErrWriteError, err)
				}
				if w.metrics != nil {
					w.metrics.RecordSegment(float64(kfDuration)/1000.0, len(segBytes))
				}
			}

			w.buffer.reset()
			w.nextWrite += writeInterval
		}

		w.keyframeCounter++
		w.lastKeyframe = media.Timestamp
	}

	w.buffer.pushVideo(media.Timestamp, media.Payload, media.IsKeyframe())
}

func unixSeconds() int64 {
	return time.Now().Unix()
}

func (w *Writer) handleAAC(media models.Media) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.keyframeCounter == 0 || media.IsSequenceHeader() {
		return
	}

	w.buffer.pushAudio(media.Timestamp, media.Payload)
}
