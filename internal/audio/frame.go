package audio

import (
	"encoding/binary"
	"errors"
)

// HeaderSize is the capture-direction frame header: a 4-byte big-endian
// sequence counter followed by a 4-byte big-endian send timestamp (device
// uptime in milliseconds). Playback-direction datagrams carry no header.
const HeaderSize = 8

// ErrShortFrame indicates a capture frame smaller than its header.
var ErrShortFrame = errors.New("audio: frame shorter than header")

// EncodeFrame appends a framed block to dst and returns the result.
// Samples go out little-endian, the PCM convention.
func EncodeFrame(dst []byte, seq uint32, uptimeMs uint32, samples []int16) []byte {
	dst = binary.BigEndian.AppendUint32(dst, seq)
	dst = binary.BigEndian.AppendUint32(dst, uptimeMs)
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(s))
	}
	return dst
}

// DecodeFrame splits a capture-direction frame into its header fields and
// samples. A trailing odd byte is ignored.
func DecodeFrame(b []byte) (seq, uptimeMs uint32, samples []int16, err error) {
	if len(b) < HeaderSize {
		return 0, 0, nil, ErrShortFrame
	}
	seq = binary.BigEndian.Uint32(b)
	uptimeMs = binary.BigEndian.Uint32(b[4:])
	payload := b[HeaderSize:]
	samples = make([]int16, len(payload)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(payload[2*i:]))
	}
	return seq, uptimeMs, samples, nil
}

// DecodePayload copies a raw playback datagram into dst, truncating when
// the datagram exceeds the buffer. Returns the number of samples written.
// Oversized input is a protocol violation handled by truncation so the
// playback cadence never breaks.
func DecodePayload(b []byte, dst []int16) int {
	n := len(b) / 2
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = int16(binary.LittleEndian.Uint16(b[2*i:]))
	}
	return n
}
