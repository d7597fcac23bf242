package muxer

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// AVCDecoderConfigurationRecord is the AVCC codec-configuration payload
// carried in the first video packet of a publishing session (FLV
// AVCPacketType 0): SPS/PPS plus the NALU length-prefix size the rest
// of the stream uses.
type AVCDecoderConfigurationRecord struct {
	AVCProfileIndication uint8
	AVCLevelIndication   uint8
	NALUnitLength        uint8
	SPS                  [][]byte
	PPS                  [][]byte
}

// ParseAVCDecoderConfigurationRecord decodes an AVCDecoderConfigurationRecord.
func ParseAVCDecoderConfigurationRecord(data []byte) (*AVCDecoderConfigurationRecord, error) {
	if len(data) < 7 {
		return nil, fmt.Errorf("data too short for AVCDecoderConfigurationRecord: %d bytes", len(data))
	}

	record := &AVCDecoderConfigurationRecord{
		AVCProfileIndication: data[1],
		AVCLevelIndication:   data[3],
		NALUnitLength:        (data[4] & 0x03) + 1,
	}

	r := bytes.NewReader(data[5:])

	var numOfSPS uint8
	if err := binary.Read(r, binary.BigEndian, &numOfSPS); err != nil {
		return nil, err
	}
	numOfSPS &= 0x1F

	record.SPS = make([][]byte, numOfSPS)
	for i := range record.SPS {
		var spsLength uint16
		if err := binary.Read(r, binary.BigEndian, &spsLength); err != nil {
			return nil, fmt.Errorf("failed to read SPS length: %w", err)
		}
		sps := make([]byte, spsLength)
		if n, err := r.Read(sps); err != nil || n != int(spsLength) {
			return nil, fmt.Errorf("failed to read SPS data: %w", err)
		}
		record.SPS[i] = sps
	}

	var numOfPPS uint8
	if err := binary.Read(r, binary.BigEndian, &numOfPPS); err != nil {
		return nil, err
	}

	record.PPS = make([][]byte, numOfPPS)
	for i := range record.PPS {
		var ppsLength uint16
		if err := binary.Read(r, binary.BigEndian, &ppsLength); err != nil {
			return nil, fmt.Errorf("failed to read PPS length: %w", err)
		}
		pps := make([]byte, ppsLength)
		if n, err := r.Read(pps); err != nil || n != int(ppsLength) {
			return nil, fmt.Errorf("failed to read PPS data: %w", err)
		}
		record.PPS[i] = pps
	}

	return record, nil
}

// ParseFLVVideoPacket splits an FLV video tag body into its
// sequence-header/keyframe flags and raw AVCC payload. Only the H.264
// codec id (7) is recognized; anything else is an error since this
// server never negotiates another video codec.
func ParseFLVVideoPacket(data []byte) (isSequenceHeader bool, isKeyFrame bool, avcData []byte, err error) {
	if len(data) < 5 {
		return false, false, nil, fmt.Errorf("video packet too short: %d bytes", len(data))
	}

	frameType := (data[0] >> 4) & 0x0F
	codecID := data[0] & 0x0F
	if codecID != 7 {
		return false, false, nil, fmt.Errorf("not H.264/AVC codec: %d", codecID)
	}

	isKeyFrame = frameType == 1
	isSequenceHeader = data[1] == 0
	avcData = data[5:]
	return isSequenceHeader, isKeyFrame, avcData, nil
}

// PrependSPSPPSAnnexB prepends every SPS then every PPS, each with its
// own Annex-B start code, ahead of an Annex-B frame. Players expect SPS
// and PPS immediately before the keyframe that depends on them.
func PrependSPSPPSAnnexB(frameData []byte, sps, pps [][]byte) []byte {
	var buf bytes.Buffer
	for _, s := range sps {
		buf.Write(startCode4)
		buf.Write(s)
	}
	for _, p := range pps {
		buf.Write(startCode4)
		buf.Write(p)
	}
	buf.Write(frameData)
	return buf.Bytes()
}
