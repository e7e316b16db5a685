package protocol

import (
	"encoding/json"

	"github.com/lumastream/live-core/core/events"
)

// Outbound messages use snake_case field names; inbound payloads arrive in
// camelCase. Both follow the gateway's JSON envelope contract.

type authRequest struct {
	SessionDuration *int   `json:"session_duration,omitempty"`
	APIKey          string `json:"api_key,omitempty"`
}

type authResponse struct {
	SessionToken     string `json:"session_token"`
	SessionTimeLimit int    `json:"session_time_limit"`
}

type setupMessage struct {
	Setup setupConfig `json:"setup"`
}

type setupConfig struct {
	Model                    string                `json:"model,omitempty"`
	GenerationConfig         *generationConfig     `json:"generation_config,omitempty"`
	SystemInstruction        *content              `json:"system_instruction,omitempty"`
	Tools                    []toolDeclarations    `json:"tools,omitempty"`
	Proactivity              *proactivity          `json:"proactivity,omitempty"`
	RealtimeInputConfig      *realtimeInputConfig  `json:"realtime_input_config,omitempty"`
	InputAudioTranscription  *transcriptionConfig  `json:"input_audio_transcription,omitempty"`
	OutputAudioTranscription *transcriptionConfig  `json:"output_audio_transcription,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"response_modalities,omitempty"`
	Temperature        *float64      `json:"temperature,omitempty"`
	SpeechConfig       *speechConfig `json:"speech_config,omitempty"`
}

type speechConfig struct {
	VoiceConfig *voiceConfig `json:"voice_config,omitempty"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig *prebuiltVoiceConfig `json:"prebuilt_voice_config,omitempty"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voice_name"`
}

type content struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type part struct {
	Text string `json:"text,omitempty"`
}

type toolDeclarations struct {
	FunctionDeclarations []FunctionDeclaration `json:"function_declarations,omitempty"`
}

type proactivity struct {
	ProactiveAudio bool `json:"proactive_audio"`
}

type realtimeInputConfig struct {
	AutomaticActivityDetection *ActivityDetection `json:"automatic_activity_detection,omitempty"`
}

// ActivityDetection tunes the gateway's voice-activity detection.
type ActivityDetection struct {
	Disabled                 bool   `json:"disabled,omitempty"`
	StartOfSpeechSensitivity string `json:"start_of_speech_sensitivity,omitempty"`
	EndOfSpeechSensitivity   string `json:"end_of_speech_sensitivity,omitempty"`
	PrefixPaddingMs          int    `json:"prefix_padding_ms,omitempty"`
	SilenceDurationMs        int    `json:"silence_duration_ms,omitempty"`
}

// transcriptionConfig is an empty object on the wire; presence enables the
// corresponding transcription stream.
type transcriptionConfig struct{}

type clientContentMessage struct {
	ClientContent clientContent `json:"client_content"`
}

type clientContent struct {
	Turns        []content `json:"turns"`
	TurnComplete bool      `json:"turn_complete"`
}

type toolResponseMessage struct {
	ToolResponse toolResponse `json:"tool_response"`
}

type toolResponse struct {
	FunctionResponses []functionResponse `json:"function_responses"`
}

type functionResponse struct {
	Name     string `json:"name"`
	ID       string `json:"id"`
	Response any    `json:"response"`
}

// serverMessage is the inbound JSON envelope. A single payload may carry
// several independent signals at once.
type serverMessage struct {
	SetupComplete json.RawMessage       `json:"setupComplete"`
	ServerContent *serverContent        `json:"serverContent"`
	ToolCall      *toolCallPayload      `json:"toolCall"`
	UsageMetadata *usageMetadataPayload `json:"usageMetadata"`
	SessionEnd    *sessionEndPayload    `json:"sessionEnd"`
	Error         *errorPayload         `json:"error"`
}

type serverContent struct {
	ModelTurn           *modelTurn            `json:"modelTurn"`
	InputTranscription  *transcriptionPayload `json:"inputTranscription"`
	OutputTranscription *transcriptionPayload `json:"outputTranscription"`
	TurnComplete        bool                  `json:"turnComplete"`
	Interrupted         bool                  `json:"interrupted"`
	GenerationComplete  bool                  `json:"generationComplete"`
}

type transcriptionPayload struct {
	Text     string `json:"text"`
	Finished bool   `json:"finished"`
}

type modelTurn struct {
	Parts []responsePart `json:"parts"`
}

type responsePart struct {
	Text       string      `json:"text"`
	InlineData *inlineData `json:"inlineData"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type toolCallPayload struct {
	FunctionCalls []functionCallPayload `json:"functionCalls"`
	SessionStats  *events.SessionStats  `json:"sessionStats"`
}

type functionCallPayload struct {
	Name string          `json:"name"`
	ID   string          `json:"id"`
	Args json.RawMessage `json:"args"`
}

type usageMetadataPayload struct {
	PromptTokenCount   int `json:"promptTokenCount"`
	ResponseTokenCount int `json:"responseTokenCount"`
	TotalTokenCount    int `json:"totalTokenCount"`
}

type sessionEndPayload struct {
	Stats events.SessionStats `json:"stats"`
}

type errorPayload struct {
	Message string               `json:"message"`
	Stats   *events.SessionStats `json:"stats"`
}
