// Package metrics exposes Prometheus collectors for the ingest/fanout
// server, grounded on
// _examples/adarshm11-RapidRTMP/internal/metrics/metrics.go. Viewer
// "session" and bitrate-rolling-average fields the teacher defined had
// no caller anywhere in this repo and were dropped rather than carried
// as dead weight; see DESIGN.md.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector this server registers. All but
// FramesDropped are updated somewhere in the server; RecordFrameDropped
// has no caller.
type Metrics struct {
	ActiveStreams prometheus.Gauge
	TotalStreams  prometheus.Counter

	FramesReceived *prometheus.CounterVec
	FramesDropped  *prometheus.CounterVec
	FrameSize      *prometheus.HistogramVec
	KeyFrames      prometheus.Counter

	SegmentsCreated prometheus.Counter
	SegmentDuration prometheus.Histogram
	SegmentSize     prometheus.Histogram
	SegmentsStored  prometheus.Gauge

	ActiveViewers prometheus.Gauge
	TotalViewers  prometheus.Counter

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	RTMPConnections prometheus.Counter
	RTMPDisconnects prometheus.Counter
	RTMPErrors      prometheus.Counter
}

// New creates and registers every collector.
func New() *Metrics {
	return &Metrics{
		ActiveStreams: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "javelin_active_streams",
			Help: "Number of applications currently being published",
		}),
		TotalStreams: promauto.NewCounter(prometheus.CounterOpts{
			Name: "javelin_total_streams",
			Help: "Total number of publish sessions since server start",
		}),

		FramesReceived: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "javelin_frames_received_total",
				Help: "Total number of frames received",
			},
			[]string{"app", "type"},
		),
		FramesDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "javelin_frames_dropped_total",
				Help: "Total number of frames dropped",
			},
			[]string{"app", "reason"},
		),
		FrameSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "javelin_frame_size_bytes",
				Help:    "Size of frames in bytes",
				Buckets: prometheus.ExponentialBuckets(1024, 2, 10),
			},
			[]string{"type"},
		),
		KeyFrames: promauto.NewCounter(prometheus.CounterOpts{
			Name: "javelin_keyframes_total",
			Help: "Total number of keyframes received",
		}),

		SegmentsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "javelin_segments_created_total",
			Help: "Total number of HLS segments created",
		}),
		SegmentDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "javelin_segment_duration_seconds",
			Help:    "Duration of HLS segments",
			Buckets: []float64{1, 2, 3, 4, 5, 10},
		}),
		SegmentSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "javelin_segment_size_bytes",
			Help:    "Size of HLS segments in bytes",
			Buckets: prometheus.ExponentialBuckets(10240, 2, 10),
		}),
		SegmentsStored: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "javelin_segments_stored",
			Help: "Number of HLS segment files currently on disk",
		}),

		ActiveViewers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "javelin_active_viewers",
			Help: "Number of currently connected players",
		}),
		TotalViewers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "javelin_total_viewers",
			Help: "Total number of player connections since server start",
		}),

		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "javelin_http_requests_total",
				Help: "Total number of admin HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "javelin_http_request_duration_seconds",
				Help:    "Duration of admin HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		RTMPConnections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "javelin_rtmp_connections_total",
			Help: "Total number of RTMP connections accepted",
		}),
		RTMPDisconnects: promauto.NewCounter(prometheus.CounterOpts{
			Name: "javelin_rtmp_disconnects_total",
			Help: "Total number of RTMP connections closed",
		}),
		RTMPErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "javelin_rtmp_errors_total",
			Help: "Total number of RTMP protocol errors",
		}),
	}
}

// RecordFrame records a received frame's type and size.
func (m *Metrics) RecordFrame(app string, isVideo bool, size int) {
	frameType := "audio"
	if isVideo {
		frameType = "video"
	}
	m.FramesReceived.WithLabelValues(app, frameType).Inc()
	m.FrameSize.WithLabelValues(frameType).Observe(float64(size))
}

// RecordKeyFrame records a keyframe having been received.
func (m *Metrics) RecordKeyFrame() {
	m.KeyFrames.Inc()
}

// RecordFrameDropped records a frame dropped under mailbox backpressure.
func (m *Metrics) RecordFrameDropped(app, reason string) {
	m.FramesDropped.WithLabelValues(app, reason).Inc()
}

// RecordSegment records a newly written HLS segment.
func (m *Metrics) RecordSegment(durationSeconds float64, sizeBytes int) {
	m.SegmentsCreated.Inc()
	m.SegmentDuration.Observe(durationSeconds)
	m.SegmentSize.Observe(float64(sizeBytes))
	m.SegmentsStored.Inc()
}

// RecordSegmentDeleted records a segment removed by the reaper.
func (m *Metrics) RecordSegmentDeleted() {
	m.SegmentsStored.Dec()
}

// RecordHTTPRequest records one admin HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, path, statusClass(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(durationSeconds)
}

// RecordPublishStart records a new publisher taking a channel.
func (m *Metrics) RecordPublishStart() {
	m.ActiveStreams.Inc()
	m.TotalStreams.Inc()
}

// RecordPublishStop records a publisher leaving a channel.
func (m *Metrics) RecordPublishStop() {
	m.ActiveStreams.Dec()
}

// RecordWatcherJoin records a player starting to watch a channel.
func (m *Metrics) RecordWatcherJoin() {
	m.ActiveViewers.Inc()
	m.TotalViewers.Inc()
}

// RecordWatcherLeave records a player leaving a channel.
func (m *Metrics) RecordWatcherLeave() {
	m.ActiveViewers.Dec()
}

// RecordRTMPConnection records a newly accepted RTMP connection.
func (m *Metrics) RecordRTMPConnection() {
	m.RTMPConnections.Inc()
}

// RecordRTMPDisconnect records an RTMP connection closing.
func (m *Metrics) RecordRTMPDisconnect() {
	m.RTMPDisconnects.Inc()
}

// RecordRTMPError records a protocol-level error.
func (m *Metrics) RecordRTMPError() {
	m.RTMPErrors.Inc()
}

func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
