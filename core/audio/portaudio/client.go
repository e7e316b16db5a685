// Package portaudio is an alternate microphone backend built on PortAudio,
// for hosts where miniaudio misbehaves. It implements only the capture side;
// playback stays on miniaudio.
package portaudio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
	"github.com/lumastream/live-core/core/audio"
)

const defaultFrameSize = 480 // 30ms at the capture rate

// CaptureDevice records PCM16 LE mono frames through a blocking PortAudio
// stream drained by a reader goroutine.
type CaptureDevice struct {
	frameSize int

	mu     sync.Mutex
	stream *portaudio.Stream
	in     []int16

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewCaptureDevice() (*CaptureDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	return &CaptureDevice{frameSize: defaultFrameSize}, nil
}

// Open acquires the default input stream. PortAudio's blocking API has no
// by-name device selection here; a non-empty deviceID is rejected rather
// than silently ignored.
func (c *CaptureDevice) Open(deviceID string) error {
	if deviceID != "" {
		return fmt.Errorf("portaudio backend does not support device selection")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		return nil
	}

	c.in = make([]int16, c.frameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(audio.CaptureSampleRate), c.frameSize, c.in)
	if err != nil {
		return fmt.Errorf("failed to open portaudio stream: %w", err)
	}
	c.stream = stream
	return nil
}

func (c *CaptureDevice) Start(onFrame func(pcm []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return fmt.Errorf("device not initialized")
	}
	if !c.running.CompareAndSwap(false, true) {
		return nil
	}

	if err := c.stream.Start(); err != nil {
		c.running.Store(false)
		return fmt.Errorf("failed to start portaudio stream: %w", err)
	}

	c.done = make(chan struct{})
	c.wg.Add(1)
	go c.readLoop(onFrame)
	return nil
}

func (c *CaptureDevice) readLoop(onFrame func(pcm []byte)) {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		default:
		}

		if err := c.stream.Read(); err != nil {
			if !c.running.Load() {
				return
			}
			continue
		}

		frame := bytes.Buffer{}
		if err := binary.Write(&frame, binary.LittleEndian, c.in); err != nil {
			continue
		}
		if onFrame != nil {
			onFrame(frame.Bytes())
		}
	}
}

func (c *CaptureDevice) Stop() error {
	if !c.running.CompareAndSwap(true, false) {
		return nil
	}
	close(c.done)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop portaudio stream: %w", err)
	}
	c.wg.Wait()
	return nil
}

func (c *CaptureDevice) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		if err := c.stream.Close(); err != nil {
			return fmt.Errorf("failed to close portaudio stream: %w", err)
		}
		c.stream = nil
	}
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate portaudio: %w", err)
	}
	return nil
}

func (c *CaptureDevice) EncodingInfo() audio.EncodingInfo {
	return audio.GetCaptureEncodingInfo()
}
