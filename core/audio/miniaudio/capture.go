package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/lumastream/live-core/core/audio"
)

// CaptureDevice records PCM16 LE mono frames at the capture sample rate
// through miniaudio. It owns its own audio context so the capture clock
// never shares a device loop with playback.
type CaptureDevice struct {
	audioContext *malgo.AllocatedContext
	device       *malgo.Device
	config       malgo.DeviceConfig

	onFrame func(pcm []byte)

	mu sync.Mutex
}

func NewCaptureDevice() (*CaptureDevice, error) {
	audioContext, err := newAudioContext()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize capture context: %w", err)
	}
	return &CaptureDevice{audioContext: audioContext}, nil
}

// Open initializes the device. deviceID selects a capture device by name;
// empty picks the system default.
func (c *CaptureDevice) Open(deviceID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device != nil {
		return nil
	}

	format := malgo.FormatS16
	channels := 1
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	c.config = malgo.DefaultDeviceConfig(malgo.Capture)
	c.config.SampleRate = uint32(audio.CaptureSampleRate)
	c.config.Capture.Format = format
	c.config.Capture.Channels = uint32(channels)
	c.config.Alsa.NoMMap = 1
	c.config.PerformanceProfile = malgo.LowLatency
	c.config.PeriodSizeInFrames = 480
	c.config.Periods = 3

	if deviceID != "" {
		info, err := findCaptureDevice(c.audioContext, deviceID)
		if err != nil {
			return err
		}
		id := info.ID
		c.config.Capture.DeviceID = id.Pointer()
	}

	device, err := malgo.InitDevice(c.audioContext.Context, c.config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if len(pInput) < n || n == 0 {
				return
			}
			// Read without c.mu: Stop holds the mutex while waiting for the
			// device loop to drain, so locking here would deadlock.
			if onFrame := c.onFrame; onFrame != nil {
				onFrame(pInput[:n])
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}
	c.device = device
	return nil
}

func (c *CaptureDevice) Start(onFrame func(pcm []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return fmt.Errorf("device not initialized")
	}
	c.onFrame = onFrame
	if c.device.IsStarted() {
		return nil
	}

	if err := c.device.Start(); err != nil {
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	return nil
}

func (c *CaptureDevice) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil || !c.device.IsStarted() {
		return nil
	}

	if err := c.device.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture device: %w", err)
	}
	c.onFrame = nil
	return nil
}

func (c *CaptureDevice) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}
	c.onFrame = nil

	if c.audioContext != nil {
		if err := c.audioContext.Uninit(); err != nil {
			return fmt.Errorf("failed to uninitialize capture context: %w", err)
		}
		c.audioContext.Free()
		c.audioContext = nil
	}
	return nil
}

func (c *CaptureDevice) EncodingInfo() audio.EncodingInfo {
	return audio.GetCaptureEncodingInfo()
}
