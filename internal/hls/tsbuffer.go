package hls

import (
	"encoding/binary"
)

const (
	tsPacketSize = 188
	tsSyncByte   = 0x47

	pidPAT   = 0x0000
	pidPMT   = 0x1000
	pidVideo = 0x0100
	pidAudio = 0x0101

	streamTypeH264 = 0x1B
	streamTypeAAC  = 0x0F
)

// tsBuffer accumulates MPEG-TS packets for one in-progress segment. It
// plays the role of transport_stream::Buffer referenced by
// _examples/original_source/src/hls/writer.rs; no reference muxer ships
// in the example pack, so the packetization here is written directly
// against the MPEG-TS/PES layout rather than adapted from a teacher
// file.
type tsBuffer struct {
	buf   []byte
	cc    map[uint16]byte
	wrote bool
}

func newTsBuffer() *tsBuffer {
	return &tsBuffer{cc: make(map[uint16]byte)}
}

func (t *tsBuffer) reset() {
	t.buf = t.buf[:0]
	t.wrote = false
}

func (t *tsBuffer) ensureTables() {
	if t.wrote {
		return
	}
	t.buf = append(t.buf, buildPAT()...)
	t.buf = append(t.buf, buildPMT()...)
	t.wrote = true
}

// pushVideo packetizes an Annex-B H264 access unit as a PES payload on
// pidVideo, PTS in 90kHz units derived from the RTMP millisecond
// timestamp.
func (t *tsBuffer) pushVideo(ptsMs uint32, payload []byte, randomAccess bool) {
	t.ensureTables()
	pes := buildPES(streamIDVideo, uint64(ptsMs)*90, payload)
	t.buf = append(t.buf, t.packetize(pidVideo, pes, randomAccess)...)
}

func (t *tsBuffer) pushAudio(ptsMs uint32, payload []byte) {
	t.ensureTables()
	pes := buildPES(streamIDAudio, uint64(ptsMs)*90, payload)
	t.buf = append(t.buf, t.packetize(pidAudio, pes, false)...)
}

func (t *tsBuffer) bytes() []byte {
	return t.buf
}

const (
	streamIDVideo = 0xE0
	streamIDAudio = 0xC0
)

func buildPES(streamID byte, pts uint64, payload []byte) []byte {
	out := make([]byte, 0, len(payload)+19)
	out = append(out, 0x00, 0x00, 0x01, streamID)

	header := make([]byte, 0, 14)
	header = append(header, 0x80, 0x80, 0x05)
	header = append(header, encodePTS(0x2, pts)...)

	pesLen := len(header) + len(payload)
	if pesLen > 0xFFFF {
		pesLen = 0 // unbounded, permitted for video streams
	}
	out = append(out, byte(pesLen>>8), byte(pesLen))
	out = append(out, header...)
	out = append(out, payload...)
	return out
}

func encodePTS(marker byte, pts uint64) []byte {
	b := make([]byte, 5)
	b[0] = (marker << 4) | byte((pts>>29)&0x0E) | 0x01
	b[1] = byte(pts >> 22)
	b[2] = byte((pts>>14)&0xFE) | 0x01
	b[3] = byte(pts >> 7)
	b[4] = byte((pts<<1)&0xFE) | 0x01
	return b
}

// packetize splits a PES payload into 188-byte TS packets on pid,
// setting the payload_unit_start and random_access indicators on the
// first packet and maintaining a per-PID continuity counter.
func (t *tsBuffer) packetize(pid uint16, pes []byte, randomAccess bool) []byte {
	var out []byte
	first := true

	for len(pes) > 0 {
		pkt := make([]byte, tsPacketSize)
		pkt[0] = tsSyncByte

		pusi := byte(0)
		if first {
			pusi = 0x40
		}
		pkt[1] = pusi | byte(pid>>8)&0x1F
		pkt[2] = byte(pid)

		cc := t.cc[pid]
		t.cc[pid] = (cc + 1) & 0x0F

		headerLen := 4
		payloadStart := 4

		if first && randomAccess {
			pkt[3] = 0x30 | (cc & 0x0F) // adaptation + payload
			af := buildAdaptationField(true)
			copy(pkt[4:], af)
			headerLen = 4 + len(af)
			payloadStart = headerLen
		} else {
			pkt[3] = 0x10 | (cc & 0x0F) // payload only
		}

		avail := tsPacketSize - payloadStart
		n := len(pes)
		if n > avail {
			n = avail
		} else if n < avail {
			// pad remaining bytes of the last packet with an adaptation
			// field stuffing area rather than leaving garbage.
			pad := avail - n
			pkt[3] = (pkt[3] & 0xCF) | 0x30
			af := buildStuffing(pad)
			copy(pkt[headerLen:], af)
			payloadStart = headerLen + len(af)
		}

		copy(pkt[payloadStart:], pes[:n])
		out = append(out, pkt...)

		pes = pes[n:]
		first = false
	}

	return out
}

func buildAdaptationField(randomAccess bool) []byte {
	flags := byte(0x00)
	if randomAccess {
		flags |= 0x40
	}
	return []byte{0x01, flags}
}

func buildStuffing(n int) []byte {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []byte{0x00}
	}
	field := make([]byte, n)
	field[0] = byte(n - 1)
	field[1] = 0x00
	for i := 2; i < n; i++ {
		field[i] = 0xFF
	}
	return field
}

func buildPAT() []byte {
	section := []byte{
		0x00,       // table id
		0xB0, 0x0D, // section_syntax_indicator + length
		0x00, 0x01, // transport_stream_id
		0xC1,       // version/current_next
		0x00, 0x00, // section_number / last_section_number
		0x00, 0x01, // program_number 1
		0xE0 | byte(pidPMT>>8), byte(pidPMT),
	}
	section = append(section, crc32Stub(section)...)
	return wrapSection(pidPAT, section)
}

func buildPMT() []byte {
	section := []byte{
		0x02,
		0xB0, 0x17,
		0x00, 0x01,
		0xC1,
		0x00, 0x00,
		0xE0 | byte(pidVideo>>8), byte(pidVideo), // PCR pid
		0xF0, 0x00, // program_info_length
		streamTypeH264, 0xE0 | byte(pidVideo>>8), byte(pidVideo), 0xF0, 0x00,
		streamTypeAAC, 0xE0 | byte(pidAudio>>8), byte(pidAudio), 0xF0, 0x00,
	}
	section = append(section, crc32Stub(section)...)
	return wrapSection(pidPMT, section)
}

// crc32Stub computes the MPEG-2 CRC32 over a PSI section (table id
// through the last data byte), matching the polynomial ISO/IEC 13818-1
// Annex A specifies.
func crc32Stub(section []byte) []byte {
	crc := mpegCRC32(section)
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, crc)
	return out
}

func mpegCRC32(data []byte) uint32 {
	var crc uint32 = 0xFFFFFFFF
	for _, b := range data {
		crc ^= uint32(b) << 24
		for i := 0; i < 8; i++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ 0x04C11DB7
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

func wrapSection(pid uint16, section []byte) []byte {
	pkt := make([]byte, tsPacketSize)
	pkt[0] = tsSyncByte
	pkt[1] = 0x40 | byte(pid>>8)&0x1F // payload_unit_start
	pkt[2] = byte(pid)
	pkt[3] = 0x10 // payload only, cc=0

	pkt[4] = 0x00 // pointer_field
	copy(pkt[5:], section)
	for i := 5 + len(section); i < tsPacketSize; i++ {
		pkt[i] = 0xFF
	}
	return pkt
}
