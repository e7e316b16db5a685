package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/lumastream/live-core/core/events"
)

// decodeBinaryFrame turns a raw PCM16 binary frame into a single audio
// event. Binary frames carry no envelope.
func decodeBinaryFrame(frame []byte) events.Event {
	return events.NewAudio(frame)
}

// decodeTextFrame demultiplexes one JSON payload into events. A single
// payload may carry several independent signals (an output transcription
// and a turn-complete flag can arrive together); one event is emitted per
// signal present, never only the first match.
func decodeTextFrame(data []byte) ([]events.Event, error) {
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gateway payload: %w", err)
	}

	var decoded []events.Event

	if msg.SetupComplete != nil {
		decoded = append(decoded, events.NewSetupComplete())
	}

	if serverContent := msg.ServerContent; serverContent != nil {
		if transcription := serverContent.InputTranscription; transcription != nil {
			decoded = append(decoded, events.NewInputTranscription(transcription.Text, transcription.Finished))
		}
		if transcription := serverContent.OutputTranscription; transcription != nil {
			decoded = append(decoded, events.NewOutputTranscription(transcription.Text, transcription.Finished))
		}
		if serverContent.ModelTurn != nil {
			for _, turnPart := range serverContent.ModelTurn.Parts {
				if turnPart.Text != "" {
					decoded = append(decoded, events.NewText(turnPart.Text))
				}
				if turnPart.InlineData != nil && turnPart.InlineData.Data != "" {
					pcm, err := base64.StdEncoding.DecodeString(turnPart.InlineData.Data)
					if err != nil {
						logger.Warn("Dropping undecodable inline audio part", "error", err)
						continue
					}
					decoded = append(decoded, events.NewAudio(pcm))
				}
			}
		}
		if serverContent.Interrupted {
			decoded = append(decoded, events.NewInterrupted())
		}
		if serverContent.GenerationComplete {
			decoded = append(decoded, events.NewGenerationComplete())
		}
		if serverContent.TurnComplete {
			decoded = append(decoded, events.NewTurnComplete())
		}
	}

	if msg.ToolCall != nil {
		calls := make([]events.FunctionCall, 0, len(msg.ToolCall.FunctionCalls))
		for _, call := range msg.ToolCall.FunctionCalls {
			calls = append(calls, events.FunctionCall{Name: call.Name, ID: call.ID, Args: call.Args})
		}
		decoded = append(decoded, events.NewToolCall(calls, msg.ToolCall.SessionStats))
	}

	if msg.UsageMetadata != nil {
		decoded = append(decoded, events.NewUsageMetadata(
			msg.UsageMetadata.PromptTokenCount,
			msg.UsageMetadata.ResponseTokenCount,
			msg.UsageMetadata.TotalTokenCount,
		))
	}

	if msg.SessionEnd != nil {
		decoded = append(decoded, events.NewSessionEnd(msg.SessionEnd.Stats))
	}

	if msg.Error != nil {
		decoded = append(decoded, events.NewError(msg.Error.Message, msg.Error.Stats))
	}

	if len(decoded) == 0 {
		// Default case of the closed union: an unrecognized payload is
		// surfaced in logs, not silently skipped.
		logger.Debug("Unrecognized gateway payload", "payload", string(data))
	}

	return decoded, nil
}
