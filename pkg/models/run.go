package models

import "time"

// RunStatus represents the terminal state of a task run.
type RunStatus string

const (
	// RunStatusRunning indicates the run is still executing.
	RunStatusRunning RunStatus = "running"
	// RunStatusCompleted indicates the run finished successfully.
	RunStatusCompleted RunStatus = "completed"
	// RunStatusFailed indicates the run finished with a failure.
	RunStatusFailed RunStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s RunStatus) Valid() bool {
	switch s {
	case RunStatusRunning, RunStatusCompleted, RunStatusFailed:
		return true
	default:
		return false
	}
}

// Run represents one end-to-end execution of a user request.
type Run struct {
	// ID is the unique identifier for this run.
	ID string `json:"id"`
	// Prompt is the user request that started the run.
	Prompt string `json:"prompt"`
	// Status is the terminal state of the run.
	Status RunStatus `json:"status"`
	// Result is the final result text, if the run produced one.
	Result string `json:"result,omitempty"`
	// Error contains the failure reason if the run failed.
	Error string `json:"error,omitempty"`
	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`
	// CompletedAt is when the run terminated, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
