package session

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/lumastream/live-core/core/audio"
)

// playbackPlayer wraps a playback device behind lazy initialization and
// adds a software gain stage applied at decode time.
type playbackPlayer struct {
	device audio.PlaybackDevice

	mu          sync.Mutex
	initialized atomic.Bool
	destroyed   atomic.Bool
	gain        atomic.Uint64 // math.Float64bits
}

func newPlaybackPlayer(device audio.PlaybackDevice) *playbackPlayer {
	p := &playbackPlayer{device: device}
	p.gain.Store(math.Float64bits(1.0))
	return p
}

// Init opens the device on first use. Idempotent.
func (p *playbackPlayer) Init() error {
	if p.device == nil {
		return fmt.Errorf("no playback device configured")
	}
	if p.destroyed.Load() {
		return fmt.Errorf("playback player already destroyed")
	}
	if p.initialized.Load() {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized.Load() {
		return nil
	}
	if err := p.device.Open(); err != nil {
		return fmt.Errorf("failed to open playback device: %w", err)
	}
	p.initialized.Store(true)
	return nil
}

// Play decodes one model audio frame (raw or base64 PCM16) and enqueues it.
// Decode failures are returned so the dispatcher can log and drop the frame
// without ending the session.
func (p *playbackPlayer) Play(frame []byte) error {
	if err := p.Init(); err != nil {
		return err
	}

	samples, err := audio.DecodePCM16Frame(frame)
	if err != nil {
		return fmt.Errorf("failed to decode playback frame: %w", err)
	}

	gain := math.Float64frombits(p.gain.Load())
	if gain != 1.0 {
		for i := range samples {
			samples[i] = float32(float64(samples[i]) * gain)
		}
	}
	return p.device.Enqueue(samples)
}

// Interrupt drops everything queued but not yet played. Used for barge-in.
func (p *playbackPlayer) Interrupt() {
	if p.initialized.Load() && !p.destroyed.Load() {
		p.device.Flush()
	}
}

// Level reports the current output level in [0, 1] for visualization.
func (p *playbackPlayer) Level() float64 {
	if !p.initialized.Load() || p.destroyed.Load() {
		return 0
	}
	return p.device.Level()
}

// SetGain scales decoded samples before they reach the device. Values are
// clamped to [0, 2].
func (p *playbackPlayer) SetGain(gain float64) {
	if gain < 0 {
		gain = 0
	} else if gain > 2 {
		gain = 2
	}
	p.gain.Store(math.Float64bits(gain))
}

func (p *playbackPlayer) Gain() float64 {
	return math.Float64frombits(p.gain.Load())
}

// Destroy flushes and releases the device. The device is closed even when
// Init never ran, so its underlying context is always freed. Safe to call
// multiple times.
func (p *playbackPlayer) Destroy() {
	if p.device == nil || !p.destroyed.CompareAndSwap(false, true) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized.Load() {
		p.device.Flush()
	}
	if err := p.device.Close(); err != nil {
		logger.Warn("Failed to close playback device", "error", err)
	}
}
