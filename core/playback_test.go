package session

import (
	"testing"

	"github.com/lumastream/live-core/core/audio"
)

func TestPlaybackPlayerAppliesGain(t *testing.T) {
	device := &fakePlayback{}
	player := newPlaybackPlayer(device)
	player.SetGain(0.5)

	pcm := audio.Float32ToPCM16([]float32{0.8, -0.8})
	if err := player.Play(pcm); err != nil {
		t.Fatalf("expected frame to play, got error: %v", err)
	}

	if len(device.enqueued) != 1 {
		t.Fatalf("expected one enqueued frame, got %d", len(device.enqueued))
	}
	samples := device.enqueued[0]
	if samples[0] < 0.35 || samples[0] > 0.45 {
		t.Fatalf("expected gain to halve the sample, got %v", samples[0])
	}
}

func TestPlaybackPlayerClampsGain(t *testing.T) {
	player := newPlaybackPlayer(&fakePlayback{})

	player.SetGain(-1)
	if player.Gain() != 0 {
		t.Fatalf("expected negative gain to clamp to 0, got %v", player.Gain())
	}
	player.SetGain(5)
	if player.Gain() != 2 {
		t.Fatalf("expected excessive gain to clamp to 2, got %v", player.Gain())
	}
}

func TestPlaybackPlayerDestroyIsIdempotent(t *testing.T) {
	device := &fakePlayback{}
	player := newPlaybackPlayer(device)
	if err := player.Init(); err != nil {
		t.Fatalf("expected init to succeed, got error: %v", err)
	}

	player.Destroy()
	player.Destroy()

	if !device.closed {
		t.Fatalf("expected the device to close")
	}
	if err := player.Play(make([]byte, 4)); err == nil {
		t.Fatalf("expected play after destroy to fail")
	}
}

func TestPlaybackPlayerDestroyBeforeInitClosesDevice(t *testing.T) {
	device := &fakePlayback{}
	player := newPlaybackPlayer(device)

	// The device was built and holds a native context even though Init
	// never ran.
	player.Destroy()

	if !device.closed {
		t.Fatalf("expected the device to close without init")
	}
	if device.flushes != 0 {
		t.Fatalf("expected no flush on an uninitialized device, got %d", device.flushes)
	}
}

func TestPlaybackPlayerInterruptBeforeInitIsSafe(t *testing.T) {
	player := newPlaybackPlayer(&fakePlayback{})
	player.Interrupt()
	if player.Level() != 0 {
		t.Fatalf("expected zero level before init")
	}
}
