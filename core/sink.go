package session

import "github.com/lumastream/live-core/core/events"

// EventSink receives every caller-visible session event. Implementations
// must tolerate calls from the gateway read goroutine.
type EventSink interface {
	OnInputTranscription(text string, finished bool)
	OnOutputTranscription(text string, finished bool)
	OnText(text string)
	OnTurnComplete()
	OnInterrupted()
	OnUsage(usage TokenUsage)
	OnSessionEnd(stats events.SessionStats)
	OnError(err error)
	OnCountdownTick(remainingSeconds int)
}

// NoopSink discards every event. Embed it to implement only part of
// [EventSink].
type NoopSink struct{}

func (NoopSink) OnInputTranscription(string, bool) {}
func (NoopSink) OnOutputTranscription(string, bool) {}
func (NoopSink) OnText(string) {}
func (NoopSink) OnTurnComplete() {}
func (NoopSink) OnInterrupted() {}
func (NoopSink) OnUsage(TokenUsage) {}
func (NoopSink) OnSessionEnd(events.SessionStats) {}
func (NoopSink) OnError(error) {}
func (NoopSink) OnCountdownTick(int) {}

type sessionCallbacks struct {
	onInputTranscription  func(text string, finished bool)
	onOutputTranscription func(text string, finished bool)
	onText                func(text string)
	onTurnComplete        func()
	onInterrupted         func()
	onUsage               func(usage TokenUsage)
	onSessionEnd          func(stats events.SessionStats)
	onError               func(err error)
	onCountdownTick       func(remainingSeconds int)
	onInputAudio          func(pcm []byte)
}

// callbackSink adapts the individual WithXxxCallback options into an
// [EventSink]. Unset callbacks drop their events.
type callbackSink struct {
	callbacks sessionCallbacks
}

func (s callbackSink) OnInputTranscription(text string, finished bool) {
	if s.callbacks.onInputTranscription != nil {
		s.callbacks.onInputTranscription(text, finished)
	}
}

func (s callbackSink) OnOutputTranscription(text string, finished bool) {
	if s.callbacks.onOutputTranscription != nil {
		s.callbacks.onOutputTranscription(text, finished)
	}
}

func (s callbackSink) OnText(text string) {
	if s.callbacks.onText != nil {
		s.callbacks.onText(text)
	}
}

func (s callbackSink) OnTurnComplete() {
	if s.callbacks.onTurnComplete != nil {
		s.callbacks.onTurnComplete()
	}
}

func (s callbackSink) OnInterrupted() {
	if s.callbacks.onInterrupted != nil {
		s.callbacks.onInterrupted()
	}
}

func (s callbackSink) OnUsage(usage TokenUsage) {
	if s.callbacks.onUsage != nil {
		s.callbacks.onUsage(usage)
	}
}

func (s callbackSink) OnSessionEnd(stats events.SessionStats) {
	if s.callbacks.onSessionEnd != nil {
		s.callbacks.onSessionEnd(stats)
	}
}

func (s callbackSink) OnError(err error) {
	if s.callbacks.onError != nil {
		s.callbacks.onError(err)
	}
}

func (s callbackSink) OnCountdownTick(remainingSeconds int) {
	if s.callbacks.onCountdownTick != nil {
		s.callbacks.onCountdownTick(remainingSeconds)
	}
}
