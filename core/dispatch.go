package session

import (
	"context"
	"time"

	"github.com/lumastream/live-core/core/events"
	"github.com/lumastream/live-core/core/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// dispatch routes one decoded gateway event to the playback path, the tool
// executor, the accounting, or the caller's sink. It runs on the gateway
// read goroutine, so events for a session are handled strictly in order.
//
// The session is bound at connect time rather than looked up, so a frame
// still in flight from a previous session's read goroutine can never be
// attributed to a newer session.
func (o *Orchestrator) dispatch(session *liveSession, event events.Event) {
	if session == nil || session.closed.Load() {
		return
	}
	session.accounting.countMessage()

	switch typedEvent := event.(type) {
	case events.SetupComplete:
		logger.Info("Session setup acknowledged", "sessionID", session.id)

	case events.Audio:
		if err := session.playback.Play(typedEvent.PCM); err != nil {
			logger.Warn("Dropping undecodable audio frame", "error", err)
		}

	case events.Text:
		session.sink.OnText(typedEvent.Text)

	case events.InputTranscription:
		session.sink.OnInputTranscription(typedEvent.Text, typedEvent.Finished)

	case events.OutputTranscription:
		session.sink.OnOutputTranscription(typedEvent.Text, typedEvent.Finished)

	case events.Interrupted:
		// Flush queued audio before notifying, so the model stops speaking
		// the instant the gateway detects user speech.
		session.playback.Interrupt()
		session.sink.OnInterrupted()

	case events.GenerationComplete:
		logger.Debug("Model generation complete", "sessionID", session.id)

	case events.TurnComplete:
		session.sink.OnTurnComplete()

	case events.ToolCall:
		o.handleToolCall(session, typedEvent)

	case events.UsageMetadata:
		usage := session.accounting.addUsage(typedEvent)
		session.sink.OnUsage(usage)

	case events.SessionEnd:
		o.finishSession(session, typedEvent.Stats)

	case events.Error:
		o.failSession(session, &protocol.ProtocolError{
			Message: typedEvent.Message,
			Stats:   typedEvent.Stats,
		})

	default:
		logger.Warn("Unhandled session event", "kind", event.Kind())
	}
}

// handleToolCall executes every function call in the batch and always sends
// a response for each call id, including for handlers that fail or names
// that were never registered. A missing response would stall the model.
func (o *Orchestrator) handleToolCall(session *liveSession, call events.ToolCall) {
	ctx, span := tracer.Start(context.Background(), "execute tool calls")
	defer span.End()
	span.SetAttributes(attribute.Int("tool.call_count", len(call.Calls)))

	for _, functionCall := range call.Calls {
		result, err := session.client.CallFunction(ctx, functionCall.Name, functionCall.Args)

		var payload any
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			payload = map[string]any{"error": err.Error()}
		case result == nil:
			payload = map[string]any{"ok": true}
		default:
			payload = result
		}

		if err := session.client.SendToolResponse(functionCall.Name, functionCall.ID, payload); err != nil {
			logger.Error("Failed to send tool response",
				"tool", functionCall.Name, "callID", functionCall.ID, "error", err)
		}
	}

	if call.Stats != nil {
		session.accounting.recordRemote(call.Stats)
	}
}

// finishSession handles a graceful remote termination: the gateway closed
// the session on its own terms and reported final stats.
func (o *Orchestrator) finishSession(session *liveSession, stats events.SessionStats) {
	session.accounting.recordRemote(&stats)
	o.teardown(session)
	session.sink.OnSessionEnd(session.accounting.snapshot(time.Now()))
}

// failSession handles a terminal fault: teardown first, then surface the
// error to the caller.
func (o *Orchestrator) failSession(session *liveSession, err error) {
	logger.Error("Session failed", "sessionID", session.id, "error", err)
	o.teardown(session)
	session.sink.OnError(err)
}
