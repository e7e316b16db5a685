package audio

const (
	// CaptureSampleRate is the fixed microphone capture rate.
	CaptureSampleRate = 16000
	// PlaybackSampleRate is the fixed model audio playback rate. Capture and
	// playback run in separate clock domains and never share a device context.
	PlaybackSampleRate = 24000
)

// GetCaptureEncodingInfo returns the encoding the gateway expects for
// outbound microphone audio.
func GetCaptureEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: CaptureSampleRate, Format: EncodingLinear16}
}

// GetPlaybackEncodingInfo returns the encoding of inbound model audio.
func GetPlaybackEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: PlaybackSampleRate, Format: EncodingLinear16}
}

type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
}

type encodingFormat string

const (
	EncodingLinear16 encodingFormat = "linear16"
)
