package events

const (
	// KindTurnComplete identifies the end of a model turn.
	KindTurnComplete Kind = "turn.complete"
	// KindGenerationComplete identifies the end of content generation.
	KindGenerationComplete Kind = "turn.generation_complete"
	// KindInterrupted identifies a turn cut off by user speech.
	KindInterrupted Kind = "turn.interrupted"
)

// TurnComplete marks the end of the model's turn.
type TurnComplete struct {
	Base
}

// NewTurnComplete creates a turn complete event.
func NewTurnComplete() TurnComplete {
	return TurnComplete{Base: NewBase(KindTurnComplete)}
}

// GenerationComplete marks the end of content generation for the turn.
// Audio may still be draining when it arrives.
type GenerationComplete struct {
	Base
}

// NewGenerationComplete creates a generation complete event.
func NewGenerationComplete() GenerationComplete {
	return GenerationComplete{Base: NewBase(KindGenerationComplete)}
}

// Interrupted marks a model turn cut off by overlapping user speech.
// Receivers should flush queued-but-unplayed audio.
type Interrupted struct {
	Base
}

// NewInterrupted creates an interrupted event.
func NewInterrupted() Interrupted {
	return Interrupted{Base: NewBase(KindInterrupted)}
}
