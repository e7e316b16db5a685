// Package miniaudio implements the capture and playback devices on top of
// malgo (miniaudio). Capture and playback each own a separate audio context:
// the microphone runs at the capture rate and the speaker at the playback
// rate, and neither device loop can stall the other.
package miniaudio

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

func newAudioContext() (*malgo.AllocatedContext, error) {
	return malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {})
}

// ListCaptureDevices enumerates the capture device names visible to the
// backend, for device pickers.
func ListCaptureDevices() ([]string, error) {
	audioContext, err := newAudioContext()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize enumeration context: %w", err)
	}
	defer func() {
		_ = audioContext.Uninit()
		audioContext.Free()
	}()

	infos, err := audioContext.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate capture devices: %w", err)
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names, nil
}

func findCaptureDevice(audioContext *malgo.AllocatedContext, name string) (*malgo.DeviceInfo, error) {
	infos, err := audioContext.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate capture devices: %w", err)
	}
	for i := range infos {
		if infos[i].Name() == name {
			return &infos[i], nil
		}
	}
	return nil, fmt.Errorf("capture device not found: %s", name)
}

// atomicFloat64 is a lock-free float for values shared with the device
// thread.
type atomicFloat64 struct {
	bits atomic.Uint64
}

func (f *atomicFloat64) store(value float64) {
	f.bits.Store(math.Float64bits(value))
}

func (f *atomicFloat64) load() float64 {
	return math.Float64frombits(f.bits.Load())
}
