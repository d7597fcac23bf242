// Package acceptor binds the RTMP (and optional RTMPS) listeners and
// hands accepted sockets to the protocol server, per spec.md §4.8.
// Grounded on
// _examples/adarshm11-RapidRTMP/internal/rtmp/server.go's
// net.Listen+Server.Serve wiring, extended with the keepalive and TLS
// bootstrap _examples/AgustinSRG-rtmp-server/rtmp_ssl.go demonstrates
// for loading a server certificate before accepting connections.
package acceptor

import (
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/crypto/pkcs12"

	"javelin/internal/rtmpproto"
)

const keepAlivePeriod = 30 * time.Second

// Config describes the listeners to bind.
type Config struct {
	Bind string
	Port int

	TLSEnabled      bool
	TLSPort         int
	TLSCertPath     string
	TLSCertPassword string
}

// Acceptor owns the plain and (optional) TLS listeners for one RTMP
// server instance.
type Acceptor struct {
	cfg    Config
	server *rtmpproto.Server
}

// New returns an Acceptor that will dispatch accepted connections to server.
func New(cfg Config, server *rtmpproto.Server) *Acceptor {
	return &Acceptor{cfg: cfg, server: server}
}

// Run binds the configured listeners and serves until one of them
// fails. It blocks; callers typically invoke it in a goroutine per
// listener or accept that the first failure ends the process, matching
// spec.md §6's non-zero exit code on bind failure.
func (a *Acceptor) Run() error {
	errs := make(chan error, 2)
	count := 0

	plainAddr := fmt.Sprintf("%s:%d", a.cfg.Bind, a.cfg.Port)
	l, err := net.Listen("tcp", plainAddr)
	if err != nil {
		return fmt.Errorf("rtmp: failed to listen on %s: %w", plainAddr, err)
	}
	count++
	go func() { errs <- a.server.Serve(&keepAliveListener{l}) }()

	if a.cfg.TLSEnabled {
		tlsAddr := fmt.Sprintf("%s:%d", a.cfg.Bind, a.cfg.TLSPort)
		tlsListener, err := a.listenTLS(tlsAddr)
		if err != nil {
			return err
		}
		count++
		go func() { errs <- a.server.Serve(&keepAliveListener{tlsListener}) }()
	}

	for i := 0; i < count; i++ {
		if err := <-errs; err != nil {
			return err
		}
	}
	return nil
}

func (a *Acceptor) listenTLS(addr string) (net.Listener, error) {
	cert, err := loadPKCS12(a.cfg.TLSCertPath, a.cfg.TLSCertPassword)
	if err != nil {
		return nil, fmt.Errorf("rtmps: failed to load certificate: %w", err)
	}

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("rtmps: failed to listen on %s: %w", addr, err)
	}
	// The keepalive wrapper sits under the TLS layer, where accepted
	// connections are still *net.TCPConn.
	return tls.NewListener(&keepAliveListener{l}, &tls.Config{Certificates: []tls.Certificate{cert}}), nil
}

func loadPKCS12(path, password string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, err
	}

	key, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("pkcs12 decode: %w", err)
	}

	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  key,
		Leaf:        cert,
	}, nil
}

// keepAliveListener wraps a net.Listener so every accepted TCP
// connection gets the 30s keepalive spec.md §4.8 calls for.
type keepAliveListener struct {
	net.Listener
}

func (l *keepAliveListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetKeepAlive(true)
		_ = tc.SetKeepAlivePeriod(keepAlivePeriod)
	}
	return conn, nil
}
