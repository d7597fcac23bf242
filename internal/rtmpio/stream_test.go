package rtmpio

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"javelin/internal/javelinerr"
)

// fakeConn is a scriptable io.ReadWriteCloser: each call to Read pops the
// next chunk (or error) off a queue, letting tests control exactly how
// much data arrives per underlying read.
type fakeConn struct {
	reads    [][]byte
	readErrs []error

	writeN   []int
	writeErr error
	written  bytes.Buffer

	closed bool
}

func (f *fakeConn) Read(p []byte) (int, error) {
	if len(f.reads) == 0 {
		return 0, io.EOF
	}
	chunk := f.reads[0]
	err := f.readErrs[0]
	f.reads = f.reads[1:]
	f.readErrs = f.readErrs[1:]

	n := copy(p, chunk)
	return n, err
}

func (f *fakeConn) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	n := len(p)
	if len(f.writeN) > 0 {
		n = f.writeN[0]
		f.writeN = f.writeN[1:]
	}
	f.written.Write(p[:n])
	return n, nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func TestReadReturnsFirstArrivedBytes(t *testing.T) {
	conn := &fakeConn{
		reads:    [][]byte{{0x01, 0x02}},
		readErrs: []error{nil},
	}
	s := New(conn)

	buf := make([]byte, 16)
	n, err := s.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(buf[:n], []byte{0x01, 0x02}) {
		t.Fatalf("Read returned %v, want [1 2]", buf[:n])
	}
}

func TestReadDrainsLeftoverBeforeNextFrame(t *testing.T) {
	conn := &fakeConn{
		reads:    [][]byte{{0x01, 0x02, 0x03}},
		readErrs: []error{nil},
	}
	s := New(conn)

	small := make([]byte, 1)
	n, err := s.Read(small)
	if err != nil || n != 1 || small[0] != 0x01 {
		t.Fatalf("first Read = (%d, %v), byte %v", n, err, small)
	}

	n, err = s.Read(small)
	if err != nil || n != 1 || small[0] != 0x02 {
		t.Fatalf("second Read = (%d, %v), byte %v, want the buffered leftover", n, err, small)
	}
}

func TestReadPropagatesUnderlyingError(t *testing.T) {
	boom := errors.New("boom")
	conn := &fakeConn{
		reads:    [][]byte{nil},
		readErrs: []error{boom},
	}
	s := New(conn)

	if _, err := s.Read(make([]byte, 4)); err != boom {
		t.Fatalf("Read error = %v, want %v", err, boom)
	}
}

func TestWriteReturnsInvalidWriteOnZeroProgress(t *testing.T) {
	conn := &fakeConn{writeN: []int{0}}
	s := New(conn)

	_, err := s.Write([]byte{0x01})
	if !errors.Is(err, javelinerr.ErrInvalidWrite) {
		t.Fatalf("Write error = %v, want ErrInvalidWrite", err)
	}
}

func TestWriteLoopsUntilFullyAccepted(t *testing.T) {
	conn := &fakeConn{writeN: []int{1, 2}}
	s := New(conn)

	n, err := s.Write([]byte{0x01, 0x02, 0x03})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 3 {
		t.Fatalf("Write n = %d, want 3", n)
	}
	if !bytes.Equal(conn.written.Bytes(), []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("underlying transport received %v, want all 3 bytes", conn.written.Bytes())
	}
}

func TestCloseClosesUnderlyingConn(t *testing.T) {
	conn := &fakeConn{}
	s := New(conn)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !conn.closed {
		t.Fatal("Close must close the underlying transport")
	}
}
