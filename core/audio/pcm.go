package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// Float32ToPCM16 converts float samples to PCM16 little-endian bytes.
// Samples are clamped to [-1, 1] before linear scaling, so an out-of-range
// capture spike never wraps around into a pop.
func Float32ToPCM16(samples []float32) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, sample := range samples {
		if sample > 1 {
			sample = 1
		} else if sample < -1 {
			sample = -1
		}
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(sample*math.MaxInt16)))
	}
	return pcm
}

// PCM16ToFloat32 converts PCM16 little-endian bytes to float samples in
// [-1, 1]. A trailing odd byte is dropped.
func PCM16ToFloat32(pcm []byte) []float32 {
	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / math.MaxInt16
	}
	return samples
}

// DecodePCM16Frame decodes an inbound model audio frame into float samples.
// Frames arrive either as raw PCM16 LE bytes or as standard base64 text of
// the same; base64 is tried first only when the frame is valid base64 with
// an even decoded length, so raw frames are never misread.
func DecodePCM16Frame(frame []byte) ([]float32, error) {
	if len(frame) == 0 {
		return nil, fmt.Errorf("empty audio frame")
	}

	if decoded, err := base64.StdEncoding.DecodeString(string(frame)); err == nil && len(decoded)%2 == 0 && len(decoded) > 0 {
		return PCM16ToFloat32(decoded), nil
	}

	if len(frame)%2 != 0 {
		return nil, fmt.Errorf("odd-length pcm16 frame: %d bytes", len(frame))
	}
	return PCM16ToFloat32(frame), nil
}
