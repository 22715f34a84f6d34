package state

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// SaveRun persists a finished run and its transcript atomically.
// Saving the same run ID again replaces the previous record.
func (db *DB) SaveRun(run *models.Run, transcript []models.MemoryEntry) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	var completedAt any
	if run.CompletedAt != nil {
		completedAt = formatTime(*run.CompletedAt)
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO runs (id, prompt, status, result, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Prompt, string(run.Status), run.Result, run.Error, formatTime(run.StartedAt), completedAt,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert run: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM memory_entries WHERE run_id = ?", run.ID); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear transcript: %w", err)
	}

	for i, entry := range transcript {
		_, err := tx.Exec(`
			INSERT INTO memory_entries (run_id, seq, role, content, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			run.ID, i, string(entry.Role), entry.Content, formatTime(entry.CreatedAt),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert transcript entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (db *DB) GetRun(id string) (*models.Run, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	row := db.conn.QueryRow(`
		SELECT id, prompt, status, result, error, started_at, completed_at
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (db *DB) ListRuns(limit int) ([]models.Run, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := db.conn.Query(`
		SELECT id, prompt, status, result, error, started_at, completed_at
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetTranscript returns a run's transcript in append order.
func (db *DB) GetTranscript(runID string) ([]models.MemoryEntry, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(`
		SELECT role, content, created_at
		FROM memory_entries WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("get transcript: %w", err)
	}
	defer rows.Close()

	var entries []models.MemoryEntry
	for rows.Next() {
		var e models.MemoryEntry
		var role, createdAt string
		if err := rows.Scan(&role, &e.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transcript entry: %w", err)
		}
		e.Role = models.Role(role)
		if t, err := parseTime(createdAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for scanRun.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*models.Run, error) {
	var run models.Run
	var status, startedAt string
	var result, errText, completedAt sql.NullString
	if err := s.Scan(&run.ID, &run.Prompt, &status, &result, &errText, &startedAt, &completedAt); err != nil {
		return nil, err
	}
	run.Status = models.RunStatus(status)
	run.Result = result.String
	run.Error = errText.String
	if t, err := parseTime(startedAt); err == nil {
		run.StartedAt = t
	}
	run.CompletedAt = parseNullableTime(completedAt)
	return &run, nil
}
