// Package session orchestrates one live conversation at a time: it owns the
// gateway connection, streams microphone audio up, plays model audio down,
// executes tool calls, and accounts for tokens and session time.
package session

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/lumastream/live-core/core/audio"
	"github.com/lumastream/live-core/core/audio/miniaudio"
	"github.com/lumastream/live-core/core/events"
	"github.com/lumastream/live-core/core/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Orchestrator drives live sessions against a conversation gateway. It is
// reusable: after a session ends or is disconnected, Connect starts a fresh
// one with new devices and a new gateway client.
type Orchestrator struct {
	baseURL string
	apiKey  string

	gatewayFactory  GatewayFactory
	captureFactory  CaptureDeviceFactory
	playbackFactory PlaybackDeviceFactory

	connecting atomic.Bool
	session    atomic.Pointer[liveSession]
}

// liveSession bundles everything owned by one connection. A new one is
// assembled per Connect so no state leaks across sessions.
type liveSession struct {
	id         string
	client     GatewayClient
	capture    *captureStreamer
	playback   *playbackPlayer
	countdown  *countdown
	accounting sessionAccounting
	sink       EventSink

	closed atomic.Bool
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		captureFactory: func() (audio.CaptureDevice, error) {
			return miniaudio.NewCaptureDevice()
		},
		playbackFactory: func() (audio.PlaybackDevice, error) {
			return miniaudio.NewPlaybackDevice()
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Connect authenticates, opens the session socket, and starts the audio
// paths. It is a no-op while a connect is in flight or a session is live,
// so double-invoked lifecycle hooks cannot race a second connection.
//
// A capture device that cannot be opened is fatal: the session is torn back
// down and the error returned. Auth failures surface as
// [protocol.AuthError] so callers can distinguish rate limiting.
func (o *Orchestrator) Connect(ctx context.Context, opts ...SessionOption) error {
	if !o.connecting.CompareAndSwap(false, true) {
		return nil
	}
	defer o.connecting.Store(false)
	if o.session.Load() != nil {
		return nil
	}

	ctx, span := tracer.Start(ctx, "connect session")
	defer span.End()

	options := SessionOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	sink := options.sink
	if sink == nil {
		sink = callbackSink{callbacks: options.callbacks}
	}

	session := &liveSession{
		id:   uuid.NewString(),
		sink: sink,
	}
	span.SetAttributes(attribute.String("session.id", session.id))

	client, err := o.buildGateway(func(event events.Event) {
		o.dispatch(session, event)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	session.client = client

	tools := options.tools
	if len(tools) == 0 {
		tools = []protocol.Tool{defaultCompletionTool(options.onCompletion)}
	}
	for _, tool := range tools {
		client.AddFunction(tool)
	}

	captureDevice, err := o.captureFactory()
	if err != nil {
		err = fmt.Errorf("failed to create capture device: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	session.capture = newCaptureStreamer(captureDevice, func(pcm []byte) {
		if options.callbacks.onInputAudio != nil {
			options.callbacks.onInputAudio(pcm)
		}
		if !client.IsConnected() {
			return
		}
		client.SendAudio(pcm)
		session.accounting.countAudioChunk()
	})

	playbackDevice, err := o.playbackFactory()
	if err != nil {
		session.capture.Stop()
		err = fmt.Errorf("failed to create playback device: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	session.playback = newPlaybackPlayer(playbackDevice)

	session.accounting.start(time.Now())
	o.session.Store(session)

	if err := client.Connect(ctx, options.connectOptions()...); err != nil {
		o.teardown(session)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := session.capture.Start(options.captureDeviceID); err != nil {
		o.teardown(session)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := session.playback.Init(); err != nil {
		o.teardown(session)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if options.sessionDuration > 0 {
		session.countdown = newCountdown(
			time.Duration(options.sessionDuration)*time.Second,
			sink.OnCountdownTick,
		)
	}

	logger.Info("Session connected", "sessionID", session.id)
	return nil
}

func (o *Orchestrator) buildGateway(onEvent func(events.Event)) (GatewayClient, error) {
	if o.gatewayFactory != nil {
		return o.gatewayFactory(onEvent)
	}
	if o.baseURL == "" {
		return nil, fmt.Errorf("no gateway URL configured")
	}
	clientOpts := []protocol.ClientOption{protocol.WithEventHandler(onEvent)}
	if o.apiKey != "" {
		clientOpts = append(clientOpts, protocol.WithAPIKey(o.apiKey))
	}
	return protocol.NewClient(o.baseURL, clientOpts...)
}

func (options *SessionOptions) connectOptions() []protocol.ConnectOption {
	connectOpts := []protocol.ConnectOption{}
	if options.systemInstructions != "" {
		connectOpts = append(connectOpts, protocol.WithSystemInstruction(options.systemInstructions))
	}
	if options.inputTranscription {
		connectOpts = append(connectOpts, protocol.WithInputTranscription())
	}
	if options.outputTranscription {
		connectOpts = append(connectOpts, protocol.WithOutputTranscription())
	}
	if options.sessionDuration > 0 {
		connectOpts = append(connectOpts, protocol.WithSessionDuration(options.sessionDuration))
	}
	if options.voice != "" {
		connectOpts = append(connectOpts, protocol.WithVoice(options.voice))
	}
	if options.jwt != "" {
		connectOpts = append(connectOpts, protocol.WithJWT(options.jwt))
	}
	if options.temperature != nil {
		connectOpts = append(connectOpts, protocol.WithTemperature(*options.temperature))
	}
	if options.proactiveAudio {
		connectOpts = append(connectOpts, protocol.WithProactiveAudio())
	}
	if options.activityDetection != nil {
		connectOpts = append(connectOpts, protocol.WithActivityDetection(*options.activityDetection))
	}
	return connectOpts
}

// Disconnect tears the live session down: countdown stopped, capture
// stopped, socket closed, playback released. Safe to call repeatedly and
// when no session is live.
func (o *Orchestrator) Disconnect() {
	session := o.session.Load()
	if session == nil {
		return
	}
	o.teardown(session)
	logger.Info("Session disconnected", "sessionID", session.id)
}

// Close is an alias for Disconnect so the orchestrator satisfies io.Closer.
func (o *Orchestrator) Close() error {
	o.Disconnect()
	return nil
}

// teardown releases everything a session owns, exactly once, in the order
// countdown, capture, socket, playback. The capture stop precedes the socket
// close so no frame is written to a closing connection.
func (o *Orchestrator) teardown(session *liveSession) {
	if !session.closed.CompareAndSwap(false, true) {
		return
	}

	if session.countdown != nil {
		session.countdown.stop()
	}
	session.capture.Stop()
	if err := session.client.Close(); err != nil {
		logger.Warn("Failed to close gateway client", "sessionID", session.id, "error", err)
	}
	session.playback.Destroy()
	o.session.CompareAndSwap(session, nil)
}

func (o *Orchestrator) current() *liveSession {
	return o.session.Load()
}

// SendText submits a typed user turn alongside the audio stream.
func (o *Orchestrator) SendText(text string) error {
	session := o.current()
	if session == nil {
		return fmt.Errorf("no live session")
	}
	return session.client.SendText(text)
}

// IsConnected reports whether a session is live.
func (o *Orchestrator) IsConnected() bool {
	session := o.current()
	return session != nil && session.client.IsConnected()
}

// IsConnecting reports whether a connect is in flight.
func (o *Orchestrator) IsConnecting() bool {
	return o.connecting.Load()
}

// SessionID returns the id of the live session, or empty when none is live.
func (o *Orchestrator) SessionID() string {
	if session := o.current(); session != nil {
		return session.id
	}
	return ""
}

// Usage returns a copy of the accumulated token usage for the live session.
func (o *Orchestrator) Usage() TokenUsage {
	session := o.current()
	if session == nil {
		return TokenUsage{}
	}
	usage := TokenUsage{}
	if err := copier.Copy(&usage, session.accounting.tokenUsage()); err != nil {
		logger.Warn("Failed to copy token usage", "error", err)
	}
	return usage
}

// Stats returns the current client-side stats snapshot for the live session.
func (o *Orchestrator) Stats() events.SessionStats {
	session := o.current()
	if session == nil {
		return events.SessionStats{}
	}
	return session.accounting.snapshot(time.Now())
}

// RemainingSeconds reports the countdown value, or -1 when the session is
// unlimited or no session is live.
func (o *Orchestrator) RemainingSeconds() int {
	session := o.current()
	if session == nil || session.countdown == nil {
		return -1
	}
	return session.countdown.remaining()
}

// SetMuted pauses or resumes microphone forwarding for the live session.
func (o *Orchestrator) SetMuted(muted bool) {
	if session := o.current(); session != nil {
		session.capture.SetMuted(muted)
	}
}

// IsMuted reports whether the microphone is paused.
func (o *Orchestrator) IsMuted() bool {
	if session := o.current(); session != nil {
		return session.capture.Muted()
	}
	return false
}

// PlaybackLevel reports the current output level in [0, 1].
func (o *Orchestrator) PlaybackLevel() float64 {
	if session := o.current(); session != nil {
		return session.playback.Level()
	}
	return 0
}

// SetPlaybackGain scales model audio before it reaches the speaker.
func (o *Orchestrator) SetPlaybackGain(gain float64) {
	if session := o.current(); session != nil {
		session.playback.SetGain(gain)
	}
}

// PlaybackGain returns the current playback gain.
func (o *Orchestrator) PlaybackGain() float64 {
	if session := o.current(); session != nil {
		return session.playback.Gain()
	}
	return 1
}

// CaptureEncoding describes the microphone stream format.
func (o *Orchestrator) CaptureEncoding() audio.EncodingInfo {
	if session := o.current(); session != nil {
		return session.capture.EncodingInfo()
	}
	return audio.GetCaptureEncodingInfo()
}

// PlaybackEncoding describes the model audio format.
func (o *Orchestrator) PlaybackEncoding() audio.EncodingInfo {
	return audio.GetPlaybackEncodingInfo()
}
