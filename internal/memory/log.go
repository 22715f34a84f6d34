// Package memory provides the append-only transcript for a task run.
package memory

import (
	"sync"
	"time"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// Log is an ordered, append-only transcript of role-tagged messages,
// scoped to one task run. It is safe for concurrent use.
type Log struct {
	mu      sync.RWMutex
	entries []models.MemoryEntry
}

// NewLog creates an empty Log.
func NewLog() *Log {
	return &Log{}
}

// Append adds an entry to the tail of the transcript.
func (l *Log) Append(role models.Role, content string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, models.MemoryEntry{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
}

// Snapshot returns a copy of the entries as of the call.
// Later appends never invalidate a returned snapshot.
func (l *Log) Snapshot() []models.MemoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.MemoryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries in the transcript.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
