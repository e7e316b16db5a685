package events

const (
	// KindText identifies a streamed model text part.
	KindText Kind = "model.text"
	// KindAudio identifies a raw PCM16 model audio frame.
	KindAudio Kind = "model.audio"
)

// Text carries a streamed model text part.
type Text struct {
	Base
	Text string
}

// NewText creates a model text event.
func NewText(text string) Text {
	return Text{Base: NewBase(KindText), Text: text}
}

// Audio carries one raw PCM16 little-endian model audio frame.
// The slice is passed through as-is (no defensive copy).
type Audio struct {
	Base
	PCM []byte
}

// NewAudio creates a model audio event.
func NewAudio(pcm []byte) Audio {
	return Audio{Base: NewBase(KindAudio), PCM: pcm}
}
