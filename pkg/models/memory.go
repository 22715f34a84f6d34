package models

import "time"

// Role identifies the author of a memory entry.
type Role string

const (
	// RoleUser marks an entry authored by the requesting user.
	RoleUser Role = "user"
	// RoleAssistant marks an entry authored by the orchestrator.
	RoleAssistant Role = "assistant"
)

// MemoryEntry is one role-tagged message in a task run's transcript.
// Entries are append-only; they are never edited or removed.
type MemoryEntry struct {
	// Role is the author of the entry.
	Role Role `json:"role"`
	// Content is the message text.
	Content string `json:"content"`
	// CreatedAt is when the entry was appended.
	CreatedAt time.Time `json:"created_at"`
}
