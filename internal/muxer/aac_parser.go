package muxer

import "fmt"

// ParseFLVAudioPacket extracts the AAC payload and sequence-header flag
// from an FLV audio tag. There is no teacher precedent for audio
// demuxing (RapidRTMP only logs a raw payload), so this follows the
// same byte-layout convention as ParseFLVVideoPacket in avc_parser.go:
// byte 0 packs SoundFormat/SoundRate/SoundSize/SoundType, byte 1 (only
// present for AAC, SoundFormat 10) carries AACPacketType (0 = sequence
// header / AudioSpecificConfig, 1 = raw frame).
func ParseFLVAudioPacket(data []byte) (isSequenceHeader bool, aacData []byte, err error) {
	if len(data) < 2 {
		return false, nil, fmt.Errorf("audio packet too short: %d bytes", len(data))
	}

	soundFormat := (data[0] >> 4) & 0x0F
	if soundFormat != 10 {
		return false, nil, fmt.Errorf("not AAC codec: soundFormat=%d", soundFormat)
	}

	aacPacketType := data[1]
	isSequenceHeader = aacPacketType == 0

	return isSequenceHeader, data[2:], nil
}
