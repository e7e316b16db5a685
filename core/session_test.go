package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/lumastream/live-core/core/audio"
	"github.com/lumastream/live-core/core/events"
	"github.com/lumastream/live-core/core/protocol"
)

type toolResponse struct {
	name    string
	callID  string
	payload any
}

type fakeGateway struct {
	mu            sync.Mutex
	connected     bool
	connectErr    error
	connectCalls  int
	closeCalls    int
	audioFrames   [][]byte
	texts         []string
	toolResponses []toolResponse
	tools         map[string]protocol.Tool
	onEvent       func(events.Event)
}

func (g *fakeGateway) Connect(context.Context, ...protocol.ConnectOption) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.connectCalls++
	if g.connectErr != nil {
		return g.connectErr
	}
	g.connected = true
	return nil
}

func (g *fakeGateway) SendAudio(frame []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.connected {
		return
	}
	g.audioFrames = append(g.audioFrames, append([]byte(nil), frame...))
}

func (g *fakeGateway) SendText(text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.texts = append(g.texts, text)
	return nil
}

func (g *fakeGateway) SendToolResponse(name, callID string, payload any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.toolResponses = append(g.toolResponses, toolResponse{name: name, callID: callID, payload: payload})
	return nil
}

func (g *fakeGateway) AddFunction(tool protocol.Tool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.tools == nil {
		g.tools = map[string]protocol.Tool{}
	}
	g.tools[tool.Name] = tool
}

func (g *fakeGateway) CallFunction(ctx context.Context, name string, args json.RawMessage) (any, error) {
	g.mu.Lock()
	tool, ok := g.tools[name]
	g.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown function: %s", name)
	}
	return tool.Handler(ctx, args)
}

func (g *fakeGateway) IsConnected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.connected
}

func (g *fakeGateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closeCalls++
	g.connected = false
	return nil
}

func (g *fakeGateway) sentFrames() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.audioFrames)
}

func (g *fakeGateway) responses() []toolResponse {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]toolResponse(nil), g.toolResponses...)
}

// push feeds a decoded event into the orchestrator the way the gateway read
// loop would.
func (g *fakeGateway) push(event events.Event) {
	g.onEvent(event)
}

type fakeCapture struct {
	mu      sync.Mutex
	openErr error
	opened  bool
	started bool
	stopped bool
	closed  bool
	onFrame func(pcm []byte)
}

func (c *fakeCapture) Open(string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return c.openErr
	}
	c.opened = true
	return nil
}

func (c *fakeCapture) Start(onFrame func(pcm []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFrame = onFrame
	c.started = true
	return nil
}

func (c *fakeCapture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	return nil
}

func (c *fakeCapture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeCapture) EncodingInfo() audio.EncodingInfo {
	return audio.GetCaptureEncodingInfo()
}

func (c *fakeCapture) emit(frame []byte) {
	c.mu.Lock()
	onFrame := c.onFrame
	c.mu.Unlock()
	if onFrame != nil {
		onFrame(frame)
	}
}

type fakePlayback struct {
	mu       sync.Mutex
	opened   bool
	closed   bool
	enqueued [][]float32
	flushes  int
	log      []string
}

func (p *fakePlayback) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opened = true
	return nil
}

func (p *fakePlayback) Enqueue(samples []float32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enqueued = append(p.enqueued, samples)
	p.log = append(p.log, "enqueue")
	return nil
}

func (p *fakePlayback) Flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.flushes++
	p.log = append(p.log, "flush")
}

func (p *fakePlayback) Level() float64 { return 0.5 }

func (p *fakePlayback) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePlayback) EncodingInfo() audio.EncodingInfo {
	return audio.GetPlaybackEncodingInfo()
}

func (p *fakePlayback) appendLog(entry string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log = append(p.log, entry)
}

func (p *fakePlayback) logEntries() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.log...)
}

func newTestOrchestrator(gateway *fakeGateway, capture *fakeCapture, playback *fakePlayback) *Orchestrator {
	return NewOrchestrator(
		WithGatewayFactory(func(onEvent func(events.Event)) (GatewayClient, error) {
			gateway.onEvent = onEvent
			return gateway, nil
		}),
		WithCaptureDeviceFactory(func() (audio.CaptureDevice, error) { return capture, nil }),
		WithPlaybackDeviceFactory(func() (audio.PlaybackDevice, error) { return playback, nil }),
	)
}

func TestConnectStartsAudioPathsAndRegistersDefaultTool(t *testing.T) {
	gateway := &fakeGateway{}
	capture := &fakeCapture{}
	playback := &fakePlayback{}
	orchestrator := newTestOrchestrator(gateway, capture, playback)

	if err := orchestrator.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got error: %v", err)
	}
	defer orchestrator.Disconnect()

	if !capture.started {
		t.Fatalf("expected capture to start")
	}
	if !playback.opened {
		t.Fatalf("expected playback device to open")
	}
	if !orchestrator.IsConnected() {
		t.Fatalf("expected orchestrator to report connected")
	}
	if orchestrator.SessionID() == "" {
		t.Fatalf("expected a session id")
	}
	if _, ok := gateway.tools[completionToolName]; !ok {
		t.Fatalf("expected the default completion tool to be registered, got %v", gateway.tools)
	}
}

func TestConnectIsNoopWhileSessionLive(t *testing.T) {
	gateway := &fakeGateway{}
	orchestrator := newTestOrchestrator(gateway, &fakeCapture{}, &fakePlayback{})

	if err := orchestrator.Connect(context.Background()); err != nil {
		t.Fatalf("expected first connect to succeed, got error: %v", err)
	}
	defer orchestrator.Disconnect()

	if err := orchestrator.Connect(context.Background()); err != nil {
		t.Fatalf("expected repeated connect to be a no-op, got error: %v", err)
	}
	if gateway.connectCalls != 1 {
		t.Fatalf("expected a single gateway connect, got %d", gateway.connectCalls)
	}
}

func TestConnectPropagatesAuthError(t *testing.T) {
	gateway := &fakeGateway{connectErr: &protocol.AuthError{Status: http.StatusTooManyRequests}}
	capture := &fakeCapture{}
	orchestrator := newTestOrchestrator(gateway, capture, &fakePlayback{})

	err := orchestrator.Connect(context.Background())
	if err == nil {
		t.Fatalf("expected connect to fail")
	}

	var authErr *protocol.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected an auth error, got %T: %v", err, err)
	}
	if !authErr.RateLimited() {
		t.Fatalf("expected the 429 to classify as rate limited")
	}
	if capture.started {
		t.Fatalf("expected capture to stay stopped after a failed handshake")
	}
	if orchestrator.IsConnected() {
		t.Fatalf("expected orchestrator to stay disconnected")
	}
}

func TestFailedConnectClosesDevices(t *testing.T) {
	gateway := &fakeGateway{connectErr: errors.New("gateway unavailable")}
	capture := &fakeCapture{}
	playback := &fakePlayback{}
	orchestrator := newTestOrchestrator(gateway, capture, playback)

	if err := orchestrator.Connect(context.Background()); err == nil {
		t.Fatalf("expected connect to fail")
	}

	// Both devices hold native audio contexts from the moment they are
	// built; a failed handshake must release them, not just drop them.
	if !capture.closed {
		t.Fatalf("expected the capture device to close after a failed connect")
	}
	if !playback.closed {
		t.Fatalf("expected the playback device to close after a failed connect")
	}
}

func TestConnectFailsWhenCaptureDeviceCannotOpen(t *testing.T) {
	gateway := &fakeGateway{}
	capture := &fakeCapture{openErr: errors.New("device busy")}
	playback := &fakePlayback{}
	orchestrator := newTestOrchestrator(gateway, capture, playback)

	if err := orchestrator.Connect(context.Background()); err == nil {
		t.Fatalf("expected connect to fail when the microphone cannot open")
	}
	if gateway.closeCalls == 0 {
		t.Fatalf("expected the gateway to close after a capture failure")
	}
	if !capture.closed {
		t.Fatalf("expected the capture device to close after a failed open")
	}
	if !playback.closed {
		t.Fatalf("expected the playback device to close after a capture failure")
	}
	if orchestrator.IsConnected() {
		t.Fatalf("expected orchestrator to stay disconnected")
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	gateway := &fakeGateway{}
	capture := &fakeCapture{}
	orchestrator := newTestOrchestrator(gateway, capture, &fakePlayback{})

	// Safe before any session exists.
	orchestrator.Disconnect()

	if err := orchestrator.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got error: %v", err)
	}
	orchestrator.Disconnect()
	orchestrator.Disconnect()

	if !capture.stopped {
		t.Fatalf("expected capture to stop on disconnect")
	}
	if gateway.closeCalls != 1 {
		t.Fatalf("expected exactly one gateway close, got %d", gateway.closeCalls)
	}
	if orchestrator.IsConnected() {
		t.Fatalf("expected orchestrator to report disconnected")
	}
}

func TestReconnectAfterDisconnectStartsFreshSession(t *testing.T) {
	gateway := &fakeGateway{}
	orchestrator := newTestOrchestrator(gateway, &fakeCapture{}, &fakePlayback{})

	if err := orchestrator.Connect(context.Background()); err != nil {
		t.Fatalf("expected first connect to succeed, got error: %v", err)
	}
	firstID := orchestrator.SessionID()
	orchestrator.Disconnect()

	if err := orchestrator.Connect(context.Background()); err != nil {
		t.Fatalf("expected reconnect to succeed, got error: %v", err)
	}
	defer orchestrator.Disconnect()

	if orchestrator.SessionID() == firstID {
		t.Fatalf("expected a fresh session id after reconnect")
	}
	if usage := orchestrator.Usage(); usage.TotalTokenCount != 0 {
		t.Fatalf("expected usage to reset across sessions, got %+v", usage)
	}
}

func TestMicFramesForwardToGatewayAndCount(t *testing.T) {
	gateway := &fakeGateway{}
	capture := &fakeCapture{}
	orchestrator := newTestOrchestrator(gateway, capture, &fakePlayback{})

	var tapped [][]byte
	if err := orchestrator.Connect(context.Background(),
		WithInputAudioCallback(func(pcm []byte) { tapped = append(tapped, pcm) }),
	); err != nil {
		t.Fatalf("expected connect to succeed, got error: %v", err)
	}
	defer orchestrator.Disconnect()

	frame := make([]byte, 640)
	capture.emit(frame)
	capture.emit(frame)
	capture.emit(frame)

	if gateway.sentFrames() != 3 {
		t.Fatalf("expected 3 forwarded frames, got %d", gateway.sentFrames())
	}
	if len(tapped) != 3 {
		t.Fatalf("expected the input tap to see every frame, got %d", len(tapped))
	}
	if stats := orchestrator.Stats(); stats.AudioChunksSent != 3 {
		t.Fatalf("expected 3 counted chunks, got %d", stats.AudioChunksSent)
	}
}

func TestMicFramesDropAfterDisconnect(t *testing.T) {
	gateway := &fakeGateway{}
	capture := &fakeCapture{}
	orchestrator := newTestOrchestrator(gateway, capture, &fakePlayback{})

	if err := orchestrator.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got error: %v", err)
	}
	orchestrator.Disconnect()

	// A device callback still in flight must not reach the gateway.
	capture.emit(make([]byte, 640))

	if gateway.sentFrames() != 0 {
		t.Fatalf("expected no frames after disconnect, got %d", gateway.sentFrames())
	}
}

func TestMuteSuppressesMicWithoutReleasingDevice(t *testing.T) {
	gateway := &fakeGateway{}
	capture := &fakeCapture{}
	orchestrator := newTestOrchestrator(gateway, capture, &fakePlayback{})

	if err := orchestrator.Connect(context.Background()); err != nil {
		t.Fatalf("expected connect to succeed, got error: %v", err)
	}
	defer orchestrator.Disconnect()

	orchestrator.SetMuted(true)
	capture.emit(make([]byte, 640))
	if gateway.sentFrames() != 0 {
		t.Fatalf("expected muted frames to drop, got %d", gateway.sentFrames())
	}
	if capture.stopped {
		t.Fatalf("expected the device to keep running while muted")
	}

	orchestrator.SetMuted(false)
	capture.emit(make([]byte, 640))
	if gateway.sentFrames() != 1 {
		t.Fatalf("expected unmuted frames to forward, got %d", gateway.sentFrames())
	}
}

func TestSendTextRequiresLiveSession(t *testing.T) {
	orchestrator := newTestOrchestrator(&fakeGateway{}, &fakeCapture{}, &fakePlayback{})

	if err := orchestrator.SendText("hello"); err == nil {
		t.Fatalf("expected send text to fail without a session")
	}
}
