package events

import "time"

// Kind identifies a member of the closed gateway event union.
type Kind string

// Event is implemented by every member of the union.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the kind tag and receive timestamp shared by all events.
type Base struct {
	kind      Kind
	timestamp time.Time
}

// NewBase stamps a base with the given kind and the current time.
func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind           { return b.kind }
func (b Base) Timestamp() time.Time { return b.timestamp }
