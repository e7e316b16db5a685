package audio

import (
	"encoding/base64"
	"math"
	"testing"
)

func TestFloat32ToPCM16ClampsOutOfRangeSamples(t *testing.T) {
	pcm := Float32ToPCM16([]float32{2.0, -2.0, 0})

	if len(pcm) != 6 {
		t.Fatalf("expected 6 bytes for 3 samples, got %d", len(pcm))
	}

	samples := PCM16ToFloat32(pcm)
	if samples[0] < 0.999 {
		t.Fatalf("expected over-range sample to clamp to full scale, got %f", samples[0])
	}
	if samples[1] > -0.999 {
		t.Fatalf("expected under-range sample to clamp to negative full scale, got %f", samples[1])
	}
	if samples[2] != 0 {
		t.Fatalf("expected zero sample to stay zero, got %f", samples[2])
	}
}

func TestPCM16RoundTripPreservesSamples(t *testing.T) {
	in := []float32{0.5, -0.25, 0.125, -1, 1}

	out := PCM16ToFloat32(Float32ToPCM16(in))

	if len(out) != len(in) {
		t.Fatalf("expected %d samples, got %d", len(in), len(out))
	}
	for i := range in {
		if math.Abs(float64(out[i]-in[i])) > 1.0/math.MaxInt16*2 {
			t.Fatalf("sample %d drifted beyond quantization error: %f -> %f", i, in[i], out[i])
		}
	}
}

func TestDecodePCM16FrameAcceptsRawAndBase64(t *testing.T) {
	raw := Float32ToPCM16([]float32{0.5, -0.5})

	fromRaw, err := DecodePCM16Frame(raw)
	if err != nil {
		t.Fatalf("expected raw frame to decode, got error: %v", err)
	}
	if len(fromRaw) != 2 {
		t.Fatalf("expected 2 samples from raw frame, got %d", len(fromRaw))
	}

	fromBase64, err := DecodePCM16Frame([]byte(base64.StdEncoding.EncodeToString(raw)))
	if err != nil {
		t.Fatalf("expected base64 frame to decode, got error: %v", err)
	}
	if len(fromBase64) != 2 {
		t.Fatalf("expected 2 samples from base64 frame, got %d", len(fromBase64))
	}
	for i := range fromRaw {
		if fromRaw[i] != fromBase64[i] {
			t.Fatalf("expected raw and base64 decodes to agree at sample %d: %f vs %f", i, fromRaw[i], fromBase64[i])
		}
	}
}

func TestDecodePCM16FrameRejectsMalformedFrames(t *testing.T) {
	if _, err := DecodePCM16Frame(nil); err == nil {
		t.Fatalf("expected empty frame to be rejected")
	}
	if _, err := DecodePCM16Frame([]byte{0x01, 0x02, 0x03}); err == nil {
		t.Fatalf("expected odd-length frame to be rejected")
	}
}

func TestDecodePCM16FrameHandles100msPlaybackChunk(t *testing.T) {
	// 4800 bytes = 2400 PCM16 samples = 100ms at the 24kHz playback rate.
	frame := make([]byte, 4800)

	samples, err := DecodePCM16Frame(frame)
	if err != nil {
		t.Fatalf("expected 4800-byte frame to decode, got error: %v", err)
	}
	if len(samples) != 2400 {
		t.Fatalf("expected 2400 samples, got %d", len(samples))
	}
	if got := float64(len(samples)) / float64(PlaybackSampleRate); got != 0.1 {
		t.Fatalf("expected a 100ms chunk, got %fs", got)
	}
}
