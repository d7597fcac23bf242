package hls

import (
	"log"
	"time"

	"javelin/internal/metrics"
	"javelin/internal/storage"
)

// reaperCapacity bounds the reaper's inbound queue; batches arrive far
// less often than media packets so this is generous rather than tight.
const reaperCapacity = 256

// reaperBatch is one delayed deletion request: files becomes due for
// removal at delay*1.5 after it is submitted, matching
// _examples/original_source/src/hls/file_cleaner.rs's
// `Instant::now() + (duration/100)*150`.
type reaperBatch struct {
	delay time.Duration
	files []string
}

// Reaper deletes evicted HLS segment files after a grace period, so a
// client still mid-request against a just-evicted segment has time to
// finish reading it. One Reaper serves the whole process.
type Reaper struct {
	store   storage.Storage
	metrics *metrics.Metrics
	batches chan reaperBatch
}

// NewReaper starts a Reaper's background loop and returns it. m may be nil.
func NewReaper(store storage.Storage, m *metrics.Metrics) *Reaper {
	r := &Reaper{
		store:   store,
		metrics: m,
		batches: make(chan reaperBatch, reaperCapacity),
	}
	go r.run()
	return r
}

// Submit queues files for deletion after delay*1.5.
func (r *Reaper) Submit(delay time.Duration, files ...string) {
	select {
	case r.batches <- reaperBatch{delay: delay, files: files}:
	default:
		log.Printf("hls: reaper queue full, dropping batch of %d files", len(files))
	}
}

func (r *Reaper) run() {
	for batch := range r.batches {
		due := time.Duration(float64(batch.delay) * 1.5)
		time.AfterFunc(due, func(files []string) func() {
			return func() { r.remove(files) }
		}(batch.files))
	}
}

func (r *Reaper) remove(files []string) {
	for _, f := range files {
		if err := r.store.Delete(f); err != nil {
			log.Printf("hls: failed to remove segment %s: %v", f, err)
			continue
		}
		if r.metrics != nil {
			r.metrics.RecordSegmentDeleted()
		}
	}
}
