// Package state provides SQLite-based persistence for task runs.
package state

import (
	"io"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// RunStore handles run persistence operations.
type RunStore interface {
	SaveRun(run *models.Run, transcript []models.MemoryEntry) error
	GetRun(id string) (*models.Run, error)
	ListRuns(limit int) ([]models.Run, error)
	GetTranscript(runID string) ([]models.MemoryEntry, error)
}

// Migrator handles database schema migrations.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// StateStore defines the interface for state persistence.
// This lets the CLI and orchestrator work with any backend without
// depending on the concrete SQLite implementation.
type StateStore interface {
	io.Closer
	Migrator
	RunStore
}

// Compile-time verification that DB implements all interfaces.
var (
	_ StateStore = (*DB)(nil)
	_ Migrator   = (*DB)(nil)
	_ RunStore   = (*DB)(nil)
)
