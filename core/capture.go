package session

import (
	"fmt"
	"sync/atomic"

	"github.com/lumastream/live-core/core/audio"
)

// captureStreamer wraps a capture device and gates frame delivery on the
// streaming flag, so a stop during an in-flight device callback drops the
// frame instead of forwarding it to a torn-down session.
type captureStreamer struct {
	device  audio.CaptureDevice
	onFrame func(pcm []byte)

	streaming atomic.Bool
	muted     atomic.Bool
	opened    atomic.Bool
	released  atomic.Bool
}

func newCaptureStreamer(device audio.CaptureDevice, onFrame func(pcm []byte)) *captureStreamer {
	return &captureStreamer{device: device, onFrame: onFrame}
}

// Start opens the device and begins streaming frames. A device that cannot
// be opened is a fatal session error and is returned to the caller.
func (s *captureStreamer) Start(deviceID string) error {
	if s.device == nil {
		return fmt.Errorf("no capture device configured")
	}

	if err := s.device.Open(deviceID); err != nil {
		s.Stop()
		return fmt.Errorf("failed to open capture device: %w", err)
	}
	s.opened.Store(true)

	if err := s.device.Start(s.handleFrame); err != nil {
		s.Stop()
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	s.streaming.Store(true)
	return nil
}

func (s *captureStreamer) handleFrame(pcm []byte) {
	if !s.streaming.Load() || s.muted.Load() {
		return
	}
	if s.onFrame != nil {
		s.onFrame(pcm)
	}
}

// SetMuted pauses or resumes frame forwarding without releasing the device,
// so unmuting is instant.
func (s *captureStreamer) SetMuted(muted bool) {
	s.muted.Store(muted)
}

func (s *captureStreamer) Muted() bool {
	return s.muted.Load()
}

func (s *captureStreamer) EncodingInfo() audio.EncodingInfo {
	if s.device == nil {
		return audio.GetCaptureEncodingInfo()
	}
	return s.device.EncodingInfo()
}

// Stop halts frame delivery and releases the device, including its
// underlying context when the device was never opened or failed to open.
// Safe to call multiple times and before Start.
func (s *captureStreamer) Stop() {
	s.streaming.Store(false)
	if s.device == nil || !s.released.CompareAndSwap(false, true) {
		return
	}

	if s.opened.CompareAndSwap(true, false) {
		if err := s.device.Stop(); err != nil {
			logger.Warn("Failed to stop capture device", "error", err)
		}
	}
	if err := s.device.Close(); err != nil {
		logger.Warn("Failed to close capture device", "error", err)
	}
}
