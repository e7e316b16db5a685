package events

// SessionStats is the aggregate counter snapshot the gateway attaches to
// tool calls and terminal events. Counters are monotonic within a session.
type SessionStats struct {
	MessageCount       uint64  `json:"messageCount"`
	AudioChunksSent    uint64  `json:"audioChunksSent"`
	ElapsedSeconds     float64 `json:"elapsedSeconds"`
	PromptTokenCount   int     `json:"promptTokenCount"`
	ResponseTokenCount int     `json:"responseTokenCount"`
	TotalTokenCount    int     `json:"totalTokenCount"`
}

// FunctionCall is a single function invocation requested by the model.
// Args is the raw JSON argument object, passed through undecoded so tool
// handlers own their parameter schemas.
type FunctionCall struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Args []byte `json:"args,omitempty"`
}
