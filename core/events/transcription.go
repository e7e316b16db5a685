package events

const (
	// KindInputTranscription identifies user speech transcription.
	KindInputTranscription Kind = "transcript.input"
	// KindOutputTranscription identifies model speech transcription.
	KindOutputTranscription Kind = "transcript.output"
)

// InputTranscription carries a transcription of user speech. Finished is
// false for interim snapshots and true for the terminal one.
type InputTranscription struct {
	Base
	Text     string
	Finished bool
}

func (t InputTranscription) String() string {
	if t.Finished {
		return t.Text
	}
	return t.Text + "..."
}

// NewInputTranscription creates an input transcription event.
func NewInputTranscription(text string, finished bool) InputTranscription {
	return InputTranscription{Base: NewBase(KindInputTranscription), Text: text, Finished: finished}
}

// OutputTranscription carries a transcription of model speech. Finished is
// false for interim snapshots and true for the terminal one.
type OutputTranscription struct {
	Base
	Text     string
	Finished bool
}

func (t OutputTranscription) String() string {
	if t.Finished {
		return t.Text
	}
	return t.Text + "..."
}

// NewOutputTranscription creates an output transcription event.
func NewOutputTranscription(text string, finished bool) OutputTranscription {
	return OutputTranscription{Base: NewBase(KindOutputTranscription), Text: text, Finished: finished}
}
