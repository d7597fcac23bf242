// Package rtmpio adapts a reliable ordered byte transport (a TCP or TLS
// connection) into the bounded-buffer read/write pair spec'd for the
// connection actor, grounded on the bytes_stream combinator in the
// original javelin implementation (_examples/original_source/src/bytes_stream.rs).
package rtmpio

import (
	"io"

	"javelin/internal/javelinerr"
)

// reservation is the chunk size the read buffer grows by while waiting
// for at least one byte from the underlying transport.
const reservation = 4096

// maxBuffer bounds how large the accumulation buffer may grow before a
// read is abandoned as runaway. Rust's original used usize::MAX - 4096;
// Go's int is narrower on 32-bit builds, so a fixed generous cap is used
// instead of platform-max-minus-reservation.
const maxBuffer = 1 << 30 // 1 GiB

// Stream wraps an io.ReadWriteCloser (a net.Conn or tls.Conn) and adds
// the failure modes spec.md §4.1 calls for: ReadBufferFull when the
// accumulation buffer would grow without bound, and InvalidWrite when
// the transport accepts zero bytes while otherwise ready. It is itself
// an io.ReadWriteCloser, so it can be handed directly to anything that
// expects one -- including yutopp/go-rtmp's onConnect hook.
type Stream struct {
	conn io.ReadWriteCloser

	readBuf  []byte
	leftover []byte
}

// New wraps conn with the bounded-buffer semantics.
func New(conn io.ReadWriteCloser) *Stream {
	return &Stream{conn: conn}
}

// ReadFrame blocks until the underlying transport yields at least one
// byte, then returns that data as a single frozen slice and resets the
// accumulation buffer. A zero-byte read (io.EOF) signals end of stream.
func (s *Stream) ReadFrame() ([]byte, error) {
	buf := s.readBuf[:0]

	for {
		if len(buf) >= maxBuffer-reservation {
			return nil, javelinerr.ErrReadBufferFull
		}

		start := len(buf)
		buf = growBuffer(buf, reservation)

		n, err := s.conn.Read(buf[start : start+reservation])
		buf = buf[:start+n]

		if n > 0 {
			s.readBuf = buf[:0]
			return buf, nil
		}

		if err != nil {
			return nil, err
		}
		// n == 0, err == nil: nothing arrived yet, keep growing/retrying.
	}
}

func growBuffer(buf []byte, by int) []byte {
	if cap(buf)-len(buf) >= by {
		return buf[:len(buf)+by]
	}
	grown := make([]byte, len(buf), len(buf)+by)
	copy(grown, buf)
	return grown[:len(buf)+by]
}

// Read implements io.Reader on top of ReadFrame, buffering any bytes the
// caller didn't consume for the next call.
func (s *Stream) Read(p []byte) (int, error) {
	if len(s.leftover) == 0 {
		frame, err := s.ReadFrame()
		if err != nil {
			return 0, err
		}
		s.leftover = frame
	}

	n := copy(p, s.leftover)
	s.leftover = s.leftover[n:]
	return n, nil
}

// Write passes p straight to the underlying transport (there is no
// separate outbound buffer), calling it again until every byte has been
// accepted. It fails with ErrInvalidWrite if the transport accepts zero
// bytes while there is still data to send.
func (s *Stream) Write(p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := s.conn.Write(p[total:])
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, javelinerr.ErrInvalidWrite
		}
		total += n
	}
	return total, nil
}

// Close closes the underlying transport.
func (s *Stream) Close() error {
	return s.conn.Close()
}
