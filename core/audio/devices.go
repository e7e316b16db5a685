package audio

// CaptureDevice is a realtime frame producer. Implementations run the
// device callback on their own realtime thread and hand frames to the
// control side through onFrame only; no buffers are shared.
type CaptureDevice interface {
	// Open acquires the device. deviceID selects a specific input when the
	// backend supports it; empty means the system default.
	Open(deviceID string) error
	// Start begins delivering PCM16 LE mono frames at CaptureSampleRate.
	Start(onFrame func(pcm []byte)) error
	// Stop pauses frame delivery. Safe to call repeatedly.
	Stop() error
	// Close releases the device and its context. Safe after Stop or failure.
	Close() error
	EncodingInfo() EncodingInfo
}

// PlaybackDevice is a realtime frame consumer with an internal queue owned
// by the device thread. The control side only enqueues samples or flushes;
// it never reads queue state back synchronously.
type PlaybackDevice interface {
	// Open acquires the device and starts the realtime callback.
	Open() error
	// Enqueue appends float samples in [-1, 1] at PlaybackSampleRate to the
	// playback queue. Never blocks on the device.
	Enqueue(samples []float32) error
	// Flush drops all queued-but-unplayed samples. Takes effect before any
	// sample enqueued after it becomes audible.
	Flush()
	// Level reports a recent output level in [0, 1] for visualization.
	Level() float64
	// Close tears the device down. Safe to call repeatedly.
	Close() error
	EncodingInfo() EncodingInfo
}
