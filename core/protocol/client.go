package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lumastream/live-core/core/events"
	"github.com/lumastream/live-core/internal/utils"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/codes"
)

const (
	authPath      = "/api/auth"
	websocketPath = "/ws"

	authTimeout = 10 * time.Second
)

// Client owns the single websocket connection to the conversational-AI
// gateway: it performs the authenticated session handshake, sends the setup
// message, streams outbound audio as unwrapped binary frames, and
// demultiplexes the inbound mixed binary/JSON stream into typed events.
//
// A Client serves exactly one session. Create a fresh instance per connect;
// the tool registry is instance-scoped and never reused.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	apiKey     string

	conn      *websocket.Conn
	connMu    sync.Mutex
	connected atomic.Bool

	registry  toolRegistry
	emitEvent func(events.Event)
}

type ClientOption func(*Client)

// WithEventHandler registers the callback that receives every decoded
// gateway event. The callback runs on the socket read goroutine and should
// not block.
func WithEventHandler(handler func(events.Event)) ClientOption {
	return func(c *Client) {
		if handler != nil {
			c.emitEvent = handler
		}
	}
}

// WithHTTPClient replaces the HTTP client used for the auth handshake.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithAPIKey forwards an API key inside the auth request body.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) { c.apiKey = apiKey }
}

// NewClient creates a client for the gateway at baseURL (http or https
// authority; the websocket scheme is derived from it).
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway base URL %q: %w", baseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported gateway scheme %q", parsed.Scheme)
	}

	client := &Client{
		baseURL: parsed,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   authTimeout,
		},
		emitEvent: func(events.Event) {},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// ConnectOptions carries the session handshake and setup parameters.
type ConnectOptions struct {
	SessionDuration *int
	JWT             string

	Model               string
	SystemInstruction   string
	Voice               string
	Temperature         *float64
	ProactiveAudio      bool
	InputTranscription  bool
	OutputTranscription bool
	ActivityDetection   *ActivityDetection
}

type ConnectOption func(*ConnectOptions)

// WithSessionDuration requests a finite session duration in seconds.
func WithSessionDuration(seconds int) ConnectOption {
	return func(o *ConnectOptions) { o.SessionDuration = utils.Ptr(seconds) }
}

// WithJWT sends a bearer token with the auth handshake.
func WithJWT(jwt string) ConnectOption {
	return func(o *ConnectOptions) { o.JWT = jwt }
}

// WithModel overrides the gateway's default model.
func WithModel(model string) ConnectOption {
	return func(o *ConnectOptions) { o.Model = model }
}

// WithSystemInstruction sets the system instruction text for the session.
func WithSystemInstruction(instruction string) ConnectOption {
	return func(o *ConnectOptions) { o.SystemInstruction = instruction }
}

// WithVoice selects a prebuilt voice for model speech.
func WithVoice(voice string) ConnectOption {
	return func(o *ConnectOptions) { o.Voice = voice }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) ConnectOption {
	return func(o *ConnectOptions) { o.Temperature = utils.Ptr(temperature) }
}

// WithProactiveAudio lets the model speak without being prompted.
func WithProactiveAudio() ConnectOption {
	return func(o *ConnectOptions) { o.ProactiveAudio = true }
}

// WithInputTranscription enables transcription of user speech.
func WithInputTranscription() ConnectOption {
	return func(o *ConnectOptions) { o.InputTranscription = true }
}

// WithOutputTranscription enables transcription of model speech.
func WithOutputTranscription() ConnectOption {
	return func(o *ConnectOptions) { o.OutputTranscription = true }
}

// WithActivityDetection tunes the gateway's voice-activity detection.
func WithActivityDetection(detection ActivityDetection) ConnectOption {
	return func(o *ConnectOptions) { o.ActivityDetection = &detection }
}

// Connect performs the auth handshake, opens the websocket with the
// returned ephemeral token, and sends the setup message. Any failure is
// returned immediately; the client performs no retries because
// mid-conversation state cannot be replayed transparently.
func (c *Client) Connect(ctx context.Context, opts ...ConnectOption) error {
	options := &ConnectOptions{}
	for _, opt := range opts {
		opt(options)
	}

	ctx, span := tracer.Start(ctx, "gateway connect")
	defer span.End()

	token, err := c.authenticate(ctx, options)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.websocketURL(token), nil)
	if err != nil {
		socketErr := &SocketError{Op: "dial", Err: err}
		span.RecordError(socketErr)
		span.SetStatus(codes.Error, socketErr.Error())
		return socketErr
	}

	if err := conn.WriteJSON(c.buildSetup(options)); err != nil {
		conn.Close()
		socketErr := &SocketError{Op: "setup", Err: err}
		span.RecordError(socketErr)
		span.SetStatus(codes.Error, socketErr.Error())
		return socketErr
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
	c.connected.Store(true)

	go c.readAndProcessMessages(conn)

	return nil
}

func (c *Client) authenticate(ctx context.Context, options *ConnectOptions) (string, error) {
	body, err := json.Marshal(authRequest{
		SessionDuration: options.SessionDuration,
		APIKey:          c.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal auth request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL.JoinPath(authPath).String(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build auth request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if options.JWT != "" {
		request.Header.Set("Authorization", "Bearer "+options.JWT)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return "", fmt.Errorf("auth request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(response.Body, 4096))
		return "", &AuthError{Status: response.StatusCode, Body: string(responseBody)}
	}

	var auth authResponse
	if err := json.NewDecoder(response.Body).Decode(&auth); err != nil {
		return "", fmt.Errorf("failed to decode auth response: %w", err)
	}
	if auth.SessionToken == "" {
		return "", fmt.Errorf("auth response missing session token")
	}

	return auth.SessionToken, nil
}

// websocketURL derives the socket endpoint from the HTTP authority and
// carries the ephemeral token as a query parameter.
func (c *Client) websocketURL(token string) string {
	socketURL := *c.baseURL
	if socketURL.Scheme == "https" {
		socketURL.Scheme = "wss"
	} else {
		socketURL.Scheme = "ws"
	}
	socketURL = *socketURL.JoinPath(websocketPath)

	query := socketURL.Query()
	query.Set("token", token)
	socketURL.RawQuery = query.Encode()

	return socketURL.String()
}

func (c *Client) buildSetup(options *ConnectOptions) setupMessage {
	config := setupConfig{
		Model: options.Model,
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			Temperature:        options.Temperature,
		},
	}

	if options.Voice != "" {
		config.GenerationConfig.SpeechConfig = &speechConfig{
			VoiceConfig: &voiceConfig{
				PrebuiltVoiceConfig: &prebuiltVoiceConfig{VoiceName: options.Voice},
			},
		}
	}

	if options.SystemInstruction != "" {
		config.SystemInstruction = &content{Parts: []part{{Text: options.SystemInstruction}}}
	}

	if declarations := c.registry.declarations(); len(declarations) > 0 {
		config.Tools = []toolDeclarations{{FunctionDeclarations: declarations}}
	}

	if options.ProactiveAudio {
		config.Proactivity = &proactivity{ProactiveAudio: true}
	}

	if options.ActivityDetection != nil {
		config.RealtimeInputConfig = &realtimeInputConfig{
			AutomaticActivityDetection: options.ActivityDetection,
		}
	}

	if options.InputTranscription {
		config.InputAudioTranscription = &transcriptionConfig{}
	}
	if options.OutputTranscription {
		config.OutputAudioTranscription = &transcriptionConfig{}
	}

	return setupMessage{Setup: config}
}

// SendAudio writes one raw PCM16 frame as an unwrapped binary websocket
// frame. This is a hot, frequent call: when the socket is not open it is a
// silent no-op and never returns or throws an error.
func (c *Client) SendAudio(frame []byte) {
	if !c.connected.Load() {
		return
	}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		// The read loop notices the broken socket; dropping the frame here
		// keeps the capture path non-blocking.
		logger.Debug("Dropped outbound audio frame", "error", err)
	}
}

// SendText injects a complete user text turn into the conversation.
func (c *Client) SendText(text string) error {
	message := clientContentMessage{
		ClientContent: clientContent{
			Turns:        []content{{Parts: []part{{Text: text}}, Role: "user"}},
			TurnComplete: true,
		},
	}
	return c.writeJSON(message)
}

// SendToolResponse acknowledges one received tool call id. It must be
// called exactly once per id, whether or not a local handler existed.
func (c *Client) SendToolResponse(name, callID string, payload any) error {
	message := toolResponseMessage{
		ToolResponse: toolResponse{
			FunctionResponses: []functionResponse{{Name: name, ID: callID, Response: payload}},
		},
	}
	return c.writeJSON(message)
}

func (c *Client) writeJSON(message any) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("socket not connected")
	}
	if err := c.conn.WriteJSON(message); err != nil {
		return &SocketError{Op: "write", Err: err}
	}
	return nil
}

// AddFunction registers a tool in the instance-scoped registry. Tools added
// after Connect are not declared to the remote side.
func (c *Client) AddFunction(tool Tool) {
	c.registry.add(tool)
}

// CallFunction invokes the registered handler for name. An unknown name is
// logged and returns an error; acknowledgement policy for that case belongs
// to the caller.
func (c *Client) CallFunction(ctx context.Context, name string, args json.RawMessage) (any, error) {
	tool, ok := c.registry.get(name)
	if !ok || tool.Handler == nil {
		logger.Warn("No handler registered for tool", "tool", name)
		return nil, fmt.Errorf("unknown function: %s", name)
	}

	ctx, span := tracer.Start(ctx, "execute tool")
	defer span.End()

	result, err := tool.Handler(ctx, args)
	if err != nil {
		err = fmt.Errorf("failed to execute tool %q: %w", name, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return result, nil
}

// IsConnected reports whether the socket is open.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// Close shuts the socket down. Safe to call repeatedly and before Connect.
func (c *Client) Close() error {
	c.connected.Store(false)

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return nil
	}

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	err := c.conn.Close()
	c.conn = nil

	if err != nil {
		return fmt.Errorf("failed to close socket: %w", err)
	}
	return nil
}

func (c *Client) readAndProcessMessages(conn *websocket.Conn) {
	defer c.connected.Store(false)

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				// Graceful closes are announced in-band via sessionEnd.
				return
			}
			if c.connected.Load() {
				c.emitEvent(events.NewError(fmt.Sprintf("connection lost: %v", err), nil))
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			c.emitEvent(decodeBinaryFrame(msg))
		case websocket.TextMessage:
			decoded, err := decodeTextFrame(msg)
			if err != nil {
				logger.Warn("Failed to decode gateway payload", "error", err)
				continue
			}
			for _, event := range decoded {
				c.emitEvent(event)
			}
		}
	}
}
