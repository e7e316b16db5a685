package events

const (
	// KindToolCall identifies a model-requested function invocation batch.
	KindToolCall Kind = "tool_call.requested"
)

// ToolCall carries one or more function invocations requested by the model.
// Every call id must produce exactly one acknowledgement on the wire,
// whether or not a local handler exists for the name.
type ToolCall struct {
	Base
	Calls []FunctionCall
	Stats *SessionStats
}

// NewToolCall creates a tool call event.
func NewToolCall(calls []FunctionCall, stats *SessionStats) ToolCall {
	return ToolCall{Base: NewBase(KindToolCall), Calls: calls, Stats: stats}
}
