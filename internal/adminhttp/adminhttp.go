// Package adminhttp serves the read-only admin/metrics HTTP surface of
// SPEC_FULL.md §4.10, grounded on
// _examples/adarshm11-RapidRTMP/httpServer/httpServer.go for the
// gin.Engine/route-group shape, trimmed to the endpoints this server
// actually needs: this surface never authenticates players and never
// mutates ingest state.
package adminhttp

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"javelin/internal/fanout"
	"javelin/internal/metrics"
)

// Server wraps a gin.Engine exposing /metrics, /api/streams, and /healthz.
type Server struct {
	router   *gin.Engine
	registry *fanout.Registry
}

// New builds the admin HTTP surface over the session manager's registry.
// It never reaches into the registry beyond the Snapshot method the
// manager already exposes for this purpose, preserving the single-owner
// rule of spec.md §9. m may be nil.
func New(registry *fanout.Registry, m *metrics.Metrics) *Server {
	s := &Server{registry: registry}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestMetrics(m))

	router.GET("/healthz", s.handleHealthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/streams", s.handleStreams)
	}

	s.router = router
	return s
}

// requestMetrics records every admin HTTP request's method, route,
// status class, and latency. The teacher defines RecordHTTPRequest but
// never calls it from any gin middleware; this wires it the standard
// gin way (wrap Next, diff the clock) rather than leaving it dead.
func requestMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		m.RecordHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start).Seconds())
	}
}

// Run starts the admin HTTP surface, blocking until it fails.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// streamInfo is the JSON shape SPEC_FULL.md §4.10 specifies for each
// registered application.
type streamInfo struct {
	App               string `json:"app"`
	Publishing        bool   `json:"publishing"`
	WatcherCount      int    `json:"watcher_count"`
	HasVideoSeqHeader bool   `json:"has_video_seq_header"`
	HasAudioSeqHeader bool   `json:"has_audio_seq_header"`
}

func (s *Server) handleStreams(c *gin.Context) {
	snapshots := s.registry.Snapshot()

	out := make([]streamInfo, 0, len(snapshots))
	for _, snap := range snapshots {
		out = append(out, streamInfo{
			App:               snap.App,
			Publishing:        snap.HasPublisher,
			WatcherCount:      snap.WatcherCount,
			HasVideoSeqHeader: snap.HasVideoSeqHeader,
			HasAudioSeqHeader: snap.HasAudioSeqHeader,
		})
	}

	c.JSON(http.StatusOK, gin.H{"streams": out, "total": len(out)})
}
