package session

import (
	"context"
	"encoding/json"

	"github.com/lumastream/live-core/core/audio"
	"github.com/lumastream/live-core/core/events"
	"github.com/lumastream/live-core/core/protocol"
)

// GatewayClient is the protocol surface the orchestrator drives.
// *protocol.Client is the production implementation; tests substitute fakes.
type GatewayClient interface {
	Connect(ctx context.Context, opts ...protocol.ConnectOption) error
	SendAudio(frame []byte)
	SendText(text string) error
	SendToolResponse(name, callID string, payload any) error
	AddFunction(tool protocol.Tool)
	CallFunction(ctx context.Context, name string, args json.RawMessage) (any, error)
	IsConnected() bool
	Close() error
}

// GatewayFactory builds a fresh gateway client for one session. onEvent
// receives every decoded gateway event.
type GatewayFactory func(onEvent func(events.Event)) (GatewayClient, error)

// CaptureDeviceFactory builds a fresh capture device for one session.
type CaptureDeviceFactory func() (audio.CaptureDevice, error)

// PlaybackDeviceFactory builds a fresh playback device for one session.
type PlaybackDeviceFactory func() (audio.PlaybackDevice, error)

type OrchestratorOption func(*Orchestrator)

// WithGatewayURL points the default gateway factory at a base HTTP(S) URL.
func WithGatewayURL(baseURL string) OrchestratorOption {
	return func(o *Orchestrator) { o.baseURL = baseURL }
}

// WithAPIKey forwards an API key with every auth handshake.
func WithAPIKey(apiKey string) OrchestratorOption {
	return func(o *Orchestrator) { o.apiKey = apiKey }
}

// WithGatewayFactory replaces how per-session gateway clients are built.
func WithGatewayFactory(factory GatewayFactory) OrchestratorOption {
	return func(o *Orchestrator) {
		if factory != nil {
			o.gatewayFactory = factory
		}
	}
}

// WithCaptureDeviceFactory replaces how per-session capture devices are built.
func WithCaptureDeviceFactory(factory CaptureDeviceFactory) OrchestratorOption {
	return func(o *Orchestrator) {
		if factory != nil {
			o.captureFactory = factory
		}
	}
}

// WithPlaybackDeviceFactory replaces how per-session playback devices are built.
func WithPlaybackDeviceFactory(factory PlaybackDeviceFactory) OrchestratorOption {
	return func(o *Orchestrator) {
		if factory != nil {
			o.playbackFactory = factory
		}
	}
}

// SessionOptions carries the per-connect configuration: handshake and setup
// parameters, the tool set, and the caller's event sink or callbacks.
type SessionOptions struct {
	systemInstructions  string
	inputTranscription  bool
	outputTranscription bool
	sessionDuration     int // seconds; 0 means unlimited
	voice               string
	jwt                 string
	temperature         *float64
	proactiveAudio      bool
	activityDetection   *protocol.ActivityDetection
	captureDeviceID     string

	tools        []protocol.Tool
	onCompletion func(CompletionResult)

	sink      EventSink
	callbacks sessionCallbacks
}

type SessionOption func(*SessionOptions)

// WithSystemInstructions sets the system instruction text for the session.
func WithSystemInstructions(instructions string) SessionOption {
	return func(o *SessionOptions) { o.systemInstructions = instructions }
}

// WithInputTranscription enables gateway-side transcription of user speech.
func WithInputTranscription() SessionOption {
	return func(o *SessionOptions) { o.inputTranscription = true }
}

// WithOutputTranscription enables gateway-side transcription of model speech.
func WithOutputTranscription() SessionOption {
	return func(o *SessionOptions) { o.outputTranscription = true }
}

// WithSessionDuration requests a finite session of the given length and
// starts the local countdown. Local expiry never forces a disconnect; the
// remote side is authoritative and signals the actual session end.
func WithSessionDuration(seconds int) SessionOption {
	return func(o *SessionOptions) { o.sessionDuration = seconds }
}

// WithVoice selects a prebuilt voice for model speech.
func WithVoice(voice string) SessionOption {
	return func(o *SessionOptions) { o.voice = voice }
}

// WithJWT sends a bearer token with the auth handshake.
func WithJWT(jwt string) SessionOption {
	return func(o *SessionOptions) { o.jwt = jwt }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) SessionOption {
	return func(o *SessionOptions) { o.temperature = &temperature }
}

// WithProactiveAudio lets the model decide to speak without being prompted.
func WithProactiveAudio() SessionOption {
	return func(o *SessionOptions) { o.proactiveAudio = true }
}

// WithActivityDetection tunes the gateway's voice-activity detection.
func WithActivityDetection(detection protocol.ActivityDetection) SessionOption {
	return func(o *SessionOptions) { o.activityDetection = &detection }
}

// WithCaptureDevice selects a specific microphone when the backend supports
// device selection; empty means the system default.
func WithCaptureDevice(deviceID string) SessionOption {
	return func(o *SessionOptions) { o.captureDeviceID = deviceID }
}

// WithTools registers caller-supplied tool definitions for this session,
// replacing the default completion tool.
func WithTools(tools ...protocol.Tool) SessionOption {
	return func(o *SessionOptions) { o.tools = append(o.tools, tools...) }
}

// WithCompletionCallback routes the default completion tool's structured
// result to the caller. Ignored when WithTools supplies a custom tool set.
func WithCompletionCallback(callback func(CompletionResult)) SessionOption {
	return func(o *SessionOptions) { o.onCompletion = callback }
}

// WithEventSink installs an explicit sink for all session events. When set,
// the individual callback options below are ignored.
func WithEventSink(sink EventSink) SessionOption {
	return func(o *SessionOptions) { o.sink = sink }
}

// WithInputTranscriptionCallback registers a callback for user speech
// transcriptions. finished marks the terminal snapshot for the utterance.
func WithInputTranscriptionCallback(callback func(text string, finished bool)) SessionOption {
	return func(o *SessionOptions) { o.callbacks.onInputTranscription = callback }
}

// WithOutputTranscriptionCallback registers a callback for model speech
// transcriptions. finished marks the terminal snapshot for the turn.
func WithOutputTranscriptionCallback(callback func(text string, finished bool)) SessionOption {
	return func(o *SessionOptions) { o.callbacks.onOutputTranscription = callback }
}

// WithTextCallback registers a callback for streamed model text parts.
func WithTextCallback(callback func(text string)) SessionOption {
	return func(o *SessionOptions) { o.callbacks.onText = callback }
}

// WithTurnCompleteCallback registers a callback fired once per completed
// model turn.
func WithTurnCompleteCallback(callback func()) SessionOption {
	return func(o *SessionOptions) { o.callbacks.onTurnComplete = callback }
}

// WithInterruptedCallback registers a callback fired when user speech cuts
// off the model mid-turn. Queued playback is flushed before this fires.
func WithInterruptedCallback(callback func()) SessionOption {
	return func(o *SessionOptions) { o.callbacks.onInterrupted = callback }
}

// WithUsageCallback registers a callback receiving the accumulated token
// usage after each usage metadata event.
func WithUsageCallback(callback func(usage TokenUsage)) SessionOption {
	return func(o *SessionOptions) { o.callbacks.onUsage = callback }
}

// WithSessionEndCallback registers a callback for graceful remote
// termination, carrying the final session stats.
func WithSessionEndCallback(callback func(stats events.SessionStats)) SessionOption {
	return func(o *SessionOptions) { o.callbacks.onSessionEnd = callback }
}

// WithErrorCallback registers a callback for terminal session faults.
func WithErrorCallback(callback func(err error)) SessionOption {
	return func(o *SessionOptions) { o.callbacks.onError = callback }
}

// WithCountdownCallback registers a callback receiving the remaining whole
// seconds whenever the countdown changes.
func WithCountdownCallback(callback func(remainingSeconds int)) SessionOption {
	return func(o *SessionOptions) { o.callbacks.onCountdownTick = callback }
}

// WithInputAudioCallback registers a read-only tap on outbound microphone
// frames, e.g. for waveform visualization.
//
// The provided slice is passed through as-is (no defensive copy). The
// callback runs inline on the capture path and should not block.
func WithInputAudioCallback(callback func(pcm []byte)) SessionOption {
	return func(o *SessionOptions) { o.callbacks.onInputAudio = callback }
}
