// Package event defines the immutable Event shape published by the
// simulation core.
package event

import "github.com/google/uuid"

// Type is the closed set of event type strings the core publishes.
type Type string

const (
	Movement     Type = "movement"
	Dialogue     Type = "dialogue"
	Action       Type = "action"
	Relationship Type = "relationship"
	Discovery    Type = "discovery"
	System       Type = "system"
	Tick         Type = "tick"
	Positions    Type = "positions"
	Health       Type = "health"
	LLMUsage     Type = "llm_usage"
)

// Valid reports whether t is one of the closed event type strings.
// Unknown strings must be rejected at ingress, never coerced.
func Valid(t string) bool {
	switch Type(t) {
	case Movement, Dialogue, Action, Relationship, Discovery, System, Tick, Positions, Health, LLMUsage:
		return true
	default:
		return false
	}
}

// Event is immutable once published.
type Event struct {
	ID           uuid.UUID
	Type         Type
	Summary      string
	Timestamp    int64
	Actors       []uuid.UUID
	LocationID   *uuid.UUID
	Detail       string
	Significance int // [1,10]
	Data         map[string]any
}
