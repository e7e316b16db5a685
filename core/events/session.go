package events

const (
	// KindSetupComplete identifies session setup acceptance.
	KindSetupComplete Kind = "session.setup_complete"
	// KindUsageMetadata identifies incremental token usage.
	KindUsageMetadata Kind = "session.usage_metadata"
	// KindSessionEnd identifies graceful remote termination.
	KindSessionEnd Kind = "session.end"
	// KindError identifies a terminal protocol-level error.
	KindError Kind = "session.error"
)

// SetupComplete marks the gateway's acceptance of the setup message.
type SetupComplete struct {
	Base
}

// NewSetupComplete creates a setup complete event.
func NewSetupComplete() SetupComplete {
	return SetupComplete{Base: NewBase(KindSetupComplete)}
}

// UsageMetadata carries incremental token usage. Values are deltas to be
// added to a running total, never absolute replacements.
type UsageMetadata struct {
	Base
	PromptTokenCount   int
	ResponseTokenCount int
	TotalTokenCount    int
}

// NewUsageMetadata creates a usage metadata event.
func NewUsageMetadata(prompt, response, total int) UsageMetadata {
	return UsageMetadata{
		Base:               NewBase(KindUsageMetadata),
		PromptTokenCount:   prompt,
		ResponseTokenCount: response,
		TotalTokenCount:    total,
	}
}

// SessionEnd marks graceful remote termination with final stats.
type SessionEnd struct {
	Base
	Stats SessionStats
}

// NewSessionEnd creates a session end event.
func NewSessionEnd(stats SessionStats) SessionEnd {
	return SessionEnd{Base: NewBase(KindSessionEnd), Stats: stats}
}

// Error marks a terminal protocol-level error reported by the gateway.
type Error struct {
	Base
	Message string
	Stats   *SessionStats
}

// NewError creates a protocol error event.
func NewError(message string, stats *SessionStats) Error {
	return Error{Base: NewBase(KindError), Message: message, Stats: stats}
}
