package rtmpproto

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/yutopp/go-rtmp"
	rtmpmsg "github.com/yutopp/go-rtmp/message"

	"javelin/internal/fanout"
	"javelin/internal/javelinerr"
	"javelin/internal/metrics"
	"javelin/internal/models"
	"javelin/internal/muxer"
	"javelin/internal/rtmpio"
)

// Server binds yutopp/go-rtmp's handshake and chunk-stream engine to the
// fanout Manager. A single Server serves both the plain RTMP and the
// RTMPS listener; the acceptor owns the net.Listeners and passes each
// one to Serve.
type Server struct {
	manager *fanout.Manager
	metrics *metrics.Metrics
	nextID  uint64

	inner *rtmp.Server
}

// New wires a Server to the given session manager. m may be nil.
func New(manager *fanout.Manager, m *metrics.Metrics) *Server {
	s := &Server{manager: manager, metrics: m}
	s.inner = rtmp.NewServer(&rtmp.ServerConfig{
		OnConnect: s.onConnect,
	})
	return s
}

// Serve runs the chunk-stream engine over an already-accepted listener
// (plain or TLS); the acceptor is responsible for listener setup.
func (s *Server) Serve(l net.Listener) error {
	return s.inner.Serve(l)
}

func (s *Server) onConnect(conn net.Conn) (io.ReadWriteCloser, *rtmp.ConnConfig) {
	id := models.ConnectionId(atomic.AddUint64(&s.nextID, 1))

	// Wrap the raw socket with the bounded-buffer byte-framed stream of
	// spec.md §4.1 rather than handing yutopp/go-rtmp the net.Conn
	// directly, so a misbehaving peer hits ReadBufferFull/InvalidWrite
	// instead of growing memory without bound.
	stream := rtmpio.New(conn)

	h := &handler{
		manager: s.manager,
		metrics: s.metrics,
		connID:  id,
		conn:    stream,
		info:    ConnectionInfo{ID: id, State: StateInitialized},
		mailbox: fanout.NewMailbox(),
	}
	s.manager.RegisterPeer(id, h.mailbox)

	if s.metrics != nil {
		s.metrics.RecordRTMPConnection()
	}

	return stream, &rtmp.ConnConfig{
		Handler: h,
		ControlState: rtmp.StreamControlStateConfig{
			DefaultBandwidthWindowSize: 6 * 1024 * 1024,
		},
	}
}

// handler is the per-connection Protocol instance: it implements
// rtmp.Handler, translates RTMP session events into calls against the
// fanout Manager, and drains its own mailbox to forward media to a
// playing connection's wire.
type handler struct {
	rtmp.DefaultHandler

	manager *fanout.Manager
	metrics *metrics.Metrics
	connID  models.ConnectionId
	conn    *rtmpio.Stream
	rtmpCn  *rtmp.Conn

	mu   sync.RWMutex
	info ConnectionInfo

	mailbox     fanout.Mailbox
	publishSink func(models.Media)
	releaseSrc  func()

	sps, pps   [][]byte
	naluLength int

	done chan struct{}
}

// OnServe captures the low-level *rtmp.Conn so the mailbox-drain loop
// can push media down to a playing client; yutopp/go-rtmp's Handler
// interface only exposes payload readers on the ingest callbacks, so the
// outbound direction needs the raw connection handle.
func (h *handler) OnServe(conn *rtmp.Conn) {
	h.rtmpCn = conn
	h.done = make(chan struct{})
	go h.drainMailbox()
}

func (h *handler) OnConnect(timestamp uint32, cmd *rtmpmsg.NetConnectionConnect) error {
	h.mu.Lock()
	h.info.App = strings.Trim(cmd.Command.App, "/")
	h.mu.Unlock()
	return nil
}

func (h *handler) OnCreateStream(timestamp uint32, cmd *rtmpmsg.NetConnectionCreateStream) error {
	return nil
}

func (h *handler) recordError() {
	if h.metrics != nil {
		h.metrics.RecordRTMPError()
	}
}

// OnPublish implements spec.md §4.2's PublishStreamRequested handling:
// Authenticate then RegisterSource, transitioning to Publishing on
// success.
func (h *handler) OnPublish(ctx *rtmp.StreamContext, timestamp uint32, cmd *rtmpmsg.NetStreamPublish) error {
	h.mu.RLock()
	app := h.info.App
	h.mu.RUnlock()
	key := strings.TrimPrefix(cmd.PublishingName, "/")

	if app == "" {
		h.recordError()
		return fmt.Errorf("publish rejected: %w", javelinerr.ErrEmptyApplicationName)
	}

	if err := h.manager.Authenticate(app, key); err != nil {
		h.recordError()
		return fmt.Errorf("publish rejected: %w", err)
	}

	sink, release, err := h.manager.RegisterSource(h.connID, app, key)
	if err != nil {
		h.recordError()
		return fmt.Errorf("publish rejected: %w", err)
	}

	h.mu.Lock()
	h.publishSink = sink
	h.releaseSrc = release
	h.info.App = app
	h.info.Key = key
	h.info.State = StatePublishing
	h.mu.Unlock()

	log.Printf("rtmp: connection %d publishing app=%s", h.connID, app)
	return nil
}

// OnPlay implements PlayStreamRequested: RegisterSink, transitioning to
// Playing. There is no teacher precedent for serving players (the
// original only ingests); this follows the same dispatch shape as
// OnPublish, using the library's documented low-level write primitive
// to push media frames once registered.
func (h *handler) OnPlay(ctx *rtmp.StreamContext, timestamp uint32, cmd *rtmpmsg.NetStreamPlay) error {
	h.mu.RLock()
	app := h.info.App
	h.mu.RUnlock()

	if app == "" {
		return fmt.Errorf("play rejected: %w", javelinerr.ErrEmptyApplicationName)
	}

	h.manager.RegisterSink(h.connID, app, h.mailbox)

	h.mu.Lock()
	h.info.State = StatePlaying
	h.mu.Unlock()

	log.Printf("rtmp: connection %d playing app=%s", h.connID, app)
	return nil
}

func (h *handler) OnSetDataFrame(timestamp uint32, data *rtmpmsg.NetStreamSetDataFrame) error {
	h.mu.RLock()
	app := h.info.App
	publishing := h.info.State == StatePublishing
	h.mu.RUnlock()

	if !publishing {
		return nil
	}

	// The AMF payload's fields are not decoded here: an empty (non-nil)
	// Metadata map is cached and broadcast in their place, so watchers
	// and late joiners receive a Metadata message with no fields.
	h.manager.SetMetadata(app, models.Metadata{})
	return nil
}

func (h *handler) OnAudio(timestamp uint32, payload io.Reader) error {
	h.mu.RLock()
	sink := h.publishSink
	h.mu.RUnlock()
	if sink == nil {
		return nil
	}

	buf, err := io.ReadAll(payload)
	if err != nil {
		return nil
	}
	if len(buf) == 0 {
		return nil
	}

	isSeqHeader, aacData, err := muxer.ParseFLVAudioPacket(buf)
	if err != nil {
		return nil
	}

	sink(models.AAC(timestamp, aacData, isSeqHeader))
	return nil
}

func (h *handler) OnVideo(timestamp uint32, payload io.Reader) error {
	h.mu.RLock()
	sink := h.publishSink
	h.mu.RUnlock()
	if sink == nil {
		return nil
	}

	buf, err := io.ReadAll(payload)
	if err != nil || len(buf) == 0 {
		return nil
	}

	isSeqHeader, isKeyframe, avcData, err := muxer.ParseFLVVideoPacket(buf)
	if err != nil {
		return nil
	}

	if isSeqHeader {
		cfg, err := muxer.ParseAVCDecoderConfigurationRecord(avcData)
		if err != nil {
			return nil
		}
		h.mu.Lock()
		h.sps, h.pps, h.naluLength = cfg.SPS, cfg.PPS, int(cfg.NALUnitLength)
		h.mu.Unlock()

		sink(models.H264(timestamp, avcData, true, false))
		return nil
	}

	annexB, err := muxer.ConvertAVCCToAnnexB(avcData)
	if err != nil {
		annexB = avcData
	}

	if isKeyframe {
		h.mu.RLock()
		sps, pps := h.sps, h.pps
		h.mu.RUnlock()
		if len(sps) > 0 && len(pps) > 0 {
			annexB = muxer.PrependSPSPPSAnnexB(annexB, sps, pps)
		}
	}

	sink(models.H264(timestamp, annexB, false, isKeyframe))
	return nil
}

func (h *handler) OnClose() {
	h.mu.Lock()
	state := h.info.State
	app := h.info.App
	release := h.releaseSrc
	h.info.State = StateFinished
	h.mu.Unlock()

	switch state {
	case StatePublishing:
		if release != nil {
			release()
		} else {
			h.manager.FinishSource(app)
		}
	case StatePlaying:
		h.manager.FinishSink(h.connID, app)
	}

	h.manager.DeregisterPeer(h.connID)
	if h.done != nil {
		close(h.done)
	}
	if h.metrics != nil {
		h.metrics.RecordRTMPDisconnect()
	}
}

// drainMailbox forwards Metadata/Media destined for this connection
// (while Playing) and Raw bytes onto the wire, and honors Disconnect by
// closing the underlying socket. This is the Connection actor loop of
// spec.md §4.5, rendered as a goroutine per connection rather than a
// cooperative poll step, since net.Conn reads/writes already block a
// dedicated goroutine in this model.
func (h *handler) drainMailbox() {
	for {
		select {
		case <-h.done:
			return
		case msg := <-h.mailbox:
			switch msg.Kind {
			case fanout.KindDisconnect:
				_ = h.conn.Close()
				return
			case fanout.KindRaw:
				_, _ = h.conn.Write(msg.Raw)
			case fanout.KindMetadata:
				// AMF re-encoding of arbitrary metadata is out of
				// scope without the codec library's writer helpers;
				// skipped until a concrete downstream consumer needs it.
			case fanout.KindMedia:
				h.writeMedia(msg.Media)
			}
		}
	}
}

func (h *handler) writeMedia(media models.Media) {
	if h.rtmpCn == nil {
		return
	}

	var err error
	if media.IsVideo() {
		err = h.rtmpCn.Write(1, media.Timestamp, &rtmpmsg.VideoMessage{
			Payload: bytes.NewReader(media.Payload),
		})
	} else {
		err = h.rtmpCn.Write(1, media.Timestamp, &rtmpmsg.AudioMessage{
			Payload: bytes.NewReader(media.Payload),
		})
	}
	if err != nil {
		log.Printf("rtmp: connection %d write failed: %v", h.connID, err)
	}
}
