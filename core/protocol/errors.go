package protocol

import (
	"fmt"
	"net/http"

	"github.com/lumastream/live-core/core/events"
)

// AuthError reports a failed auth handshake. Status carries the HTTP
// response code so callers can distinguish rate limiting (429) from other
// failures.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth handshake failed with status %d", e.Status)
}

// RateLimited reports whether the handshake was rejected for rate limiting.
func (e *AuthError) RateLimited() bool {
	return e.Status == http.StatusTooManyRequests
}

// SocketError reports a transport-level websocket failure.
type SocketError struct {
	Op  string
	Err error
}

func (e *SocketError) Error() string {
	return fmt.Sprintf("socket %s failed: %v", e.Op, e.Err)
}

func (e *SocketError) Unwrap() error { return e.Err }

// ProtocolError is a structured, always-terminal error reported by the
// remote side, optionally carrying a final stats snapshot.
type ProtocolError struct {
	Message string
	Stats   *events.SessionStats
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("gateway error: %s", e.Message)
}
