package miniaudio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/lumastream/live-core/core/audio"
)

// PlaybackDevice plays float mono samples at the playback sample rate
// through miniaudio. It owns its own audio context; the playback clock runs
// independently of capture.
//
// Samples are queued on the control side and drained by the device callback.
// Flush drops the queue atomically, so interrupted speech stops within one
// device period.
type PlaybackDevice struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig

	mu sync.Mutex

	queueMu sync.Mutex
	queue   []float32

	level atomicFloat64
}

func NewPlaybackDevice() (*PlaybackDevice, error) {
	audioContext, err := newAudioContext()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize playback context: %w", err)
	}
	return &PlaybackDevice{audioContext: audioContext}, nil
}

func (p *PlaybackDevice) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.device != nil {
		return nil
	}

	format := malgo.FormatF32
	channels := 1
	bytesPerSample := malgo.SampleSizeInBytes(format)
	bytesPerFrame := bytesPerSample * channels

	p.config = malgo.DefaultDeviceConfig(malgo.Playback)
	p.config.SampleRate = uint32(audio.PlaybackSampleRate)
	p.config.Playback.Format = format
	p.config.Playback.Channels = uint32(channels)
	p.config.Alsa.NoMMap = 1
	p.config.PerformanceProfile = malgo.LowLatency
	p.config.PeriodSizeInFrames = uint32(audio.PlaybackSampleRate) / 20 // ~50ms
	p.config.Periods = 3

	device, err := malgo.InitDevice(p.audioContext.Context, p.config, malgo.DeviceCallbacks{
		Data: func(pOutput, _ []byte, frameCount uint32) {
			p.fill(pOutput, int(frameCount), bytesPerFrame)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start playback device: %w", err)
	}
	p.device = device
	return nil
}

// fill runs on the device thread. It pops up to frameCount samples from the
// queue, writes them little-endian into the output buffer, and tracks a peak
// level for visualization. Underruns play silence.
func (p *PlaybackDevice) fill(pOutput []byte, frameCount, bytesPerFrame int) {
	p.queueMu.Lock()
	n := frameCount
	if n > len(p.queue) {
		n = len(p.queue)
	}
	batch := p.queue[:n]
	peak := float32(0)
	for i, sample := range batch {
		binary.LittleEndian.PutUint32(pOutput[i*bytesPerFrame:], math.Float32bits(sample))
		if sample < 0 {
			sample = -sample
		}
		if sample > peak {
			peak = sample
		}
	}
	p.queue = p.queue[n:]
	p.queueMu.Unlock()

	p.level.store(float64(peak))
}

func (p *PlaybackDevice) Enqueue(samples []float32) error {
	p.mu.Lock()
	started := p.device != nil
	p.mu.Unlock()
	if !started {
		return fmt.Errorf("device not initialized")
	}

	p.queueMu.Lock()
	p.queue = append(p.queue, samples...)
	p.queueMu.Unlock()
	return nil
}

func (p *PlaybackDevice) Flush() {
	p.queueMu.Lock()
	p.queue = nil
	p.queueMu.Unlock()
	p.level.store(0)
}

func (p *PlaybackDevice) Level() float64 {
	return p.level.load()
}

func (p *PlaybackDevice) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.device != nil {
		p.device.Uninit()
		p.device = nil
	}
	p.Flush()

	if p.audioContext != nil {
		if err := p.audioContext.Uninit(); err != nil {
			return fmt.Errorf("failed to uninitialize playback context: %w", err)
		}
		p.audioContext.Free()
		p.audioContext = nil
	}
	return nil
}

func (p *PlaybackDevice) EncodingInfo() audio.EncodingInfo {
	return audio.GetPlaybackEncodingInfo()
}
