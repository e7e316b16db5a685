// Package events defines the typed gateway event contract.
//
// Every frame the gateway sends decodes into one or more events from the
// closed union below. A single JSON payload may carry several independent
// signals; the decoder emits one event per signal, so consumers never have
// to re-inspect raw payloads.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - session.*
//   - turn.*
//   - transcript.*
//   - tool_call.*
//   - model.*
//
// session events
//
//   - SetupComplete (session.setup_complete): the gateway accepted the
//     setup message and the session is live.
//   - UsageMetadata (session.usage_metadata): incremental token usage for
//     the session; consumers accumulate, never replace.
//   - SessionEnd (session.end): graceful remote termination carrying the
//     final session stats. Not a failure.
//   - Error (session.error): terminal protocol-level error, optionally
//     carrying a stats snapshot.
//
// turn events
//
//   - TurnComplete (turn.complete): the model finished its turn.
//   - GenerationComplete (turn.generation_complete): the model finished
//     generating content for the turn (may precede TurnComplete).
//   - Interrupted (turn.interrupted): the model's turn was cut off by user
//     speech; queued playback should be flushed.
//
// transcript events
//
//   - InputTranscription (transcript.input): transcription of user speech;
//     Finished marks the terminal snapshot for the utterance.
//   - OutputTranscription (transcript.output): transcription of model
//     speech; Finished marks the terminal snapshot for the turn.
//
// tool_call events
//
//   - ToolCall (tool_call.requested): one or more function invocations
//     requested by the model; every call id must be acknowledged.
//
// model events
//
//   - Text (model.text): streamed model text part.
//   - Audio (model.audio): raw PCM16 model audio frame.
package events
