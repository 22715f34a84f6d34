package models

import "time"

// EventType represents the type of an orchestrator event.
type EventType string

const (
	// EventLog is a diagnostic progress message.
	EventLog EventType = "log"
	// EventMessage carries an intermediate result produced by a step.
	EventMessage EventType = "message"
	// EventError reports a recoverable failure inside a run.
	EventError EventType = "error"
	// EventFinalResult carries the terminal result of a run.
	EventFinalResult EventType = "final_result"
	// EventDone is the last event emitted for a run.
	EventDone EventType = "done"
)

// Valid returns true if the event type is a known value.
func (t EventType) Valid() bool {
	switch t {
	case EventLog, EventMessage, EventError, EventFinalResult, EventDone:
		return true
	default:
		return false
	}
}

// Event is an immutable progress record emitted during a task run.
// Events are created once and never mutated after emission.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`
	// Type is the kind of event.
	Type EventType `json:"type"`
	// Source identifies the actor that emitted the event.
	Source string `json:"source"`
	// RunID is the task run this event belongs to.
	RunID string `json:"run_id"`
	// Content is the event payload, commonly text.
	Content string `json:"content"`
	// Err contains error details for error and failed final_result events.
	Err string `json:"error,omitempty"`
	// Timestamp is when the event was created. Non-decreasing per source.
	Timestamp time.Time `json:"timestamp"`
}
