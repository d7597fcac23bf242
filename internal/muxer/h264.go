package muxer

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// H.264 NAL unit types that get a 4-byte Annex-B start code instead of
// the usual 3-byte one.
const (
	nalTypeSPS = 7
	nalTypeIDR = 5
	nalTypePPS = 8
)

var (
	startCode4 = []byte{0x00, 0x00, 0x00, 0x01}
	startCode3 = []byte{0x00, 0x00, 0x01}
)

// ConvertAVCCToAnnexB rewrites length-prefixed AVCC NAL units (the RTMP
// wire format) into start-code-prefixed Annex-B (what the MPEG-TS
// muxer and most software decoders expect).
func ConvertAVCCToAnnexB(avccData []byte) ([]byte, error) {
	if len(avccData) == 0 {
		return nil, fmt.Errorf("empty AVCC data")
	}

	var annexB bytes.Buffer
	offset := 0
	nalCount := 0

	for offset+4 <= len(avccData) {
		nalSize := binary.BigEndian.Uint32(avccData[offset : offset+4])
		offset += 4

		if nalSize == 0 {
			continue
		}
		if offset+int(nalSize) > len(avccData) {
			return nil, fmt.Errorf("invalid NAL size %d at offset %d (exceeds buffer)", nalSize, offset-4)
		}

		nalUnit := avccData[offset : offset+int(nalSize)]
		offset += int(nalSize)

		nalType := nalUnit[0] & 0x1F
		if nalType == nalTypeSPS || nalType == nalTypePPS || nalType == nalTypeIDR {
			annexB.Write(startCode4)
		} else {
			annexB.Write(startCode3)
		}
		annexB.Write(nalUnit)
		nalCount++
	}

	if nalCount == 0 {
		return nil, fmt.Errorf("no NAL units found in AVCC data")
	}
	return annexB.Bytes(), nil
}
