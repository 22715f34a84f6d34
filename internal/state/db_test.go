package state

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// tempDBPath returns a path to a temp database file.
func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

// setupTestDB creates a new temporary database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(tempDBPath(t))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func sampleRun(id string) *models.Run {
	completed := time.Now().UTC()
	return &models.Run{
		ID:          id,
		Prompt:      "Find information about Go generics",
		Status:      models.RunStatusCompleted,
		Result:      "Task terminated successfully.",
		StartedAt:   completed.Add(-2 * time.Second),
		CompletedAt: &completed,
	}
}

func TestOpen(t *testing.T) {
	path := tempDBPath(t)
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("database file does not exist at %s", path)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
}

func TestSaveRun_RoundTrip(t *testing.T) {
	db := setupTestDB(t)

	run := sampleRun("run-1")
	transcript := []models.MemoryEntry{
		{Role: models.RoleUser, Content: run.Prompt, CreatedAt: run.StartedAt},
		{Role: models.RoleAssistant, Content: "summary", CreatedAt: run.StartedAt.Add(time.Second)},
	}

	if err := db.SaveRun(run, transcript); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := db.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Prompt != run.Prompt {
		t.Errorf("Prompt = %q, want %q", got.Prompt, run.Prompt)
	}
	if got.Status != models.RunStatusCompleted {
		t.Errorf("Status = %s, want completed", got.Status)
	}
	if got.Result != run.Result {
		t.Errorf("Result = %q, want %q", got.Result, run.Result)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt should round-trip")
	}

	entries, err := db.GetTranscript("run-1")
	if err != nil {
		t.Fatalf("GetTranscript: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("transcript has %d entries, want 2", len(entries))
	}
	if entries[0].Role != models.RoleUser || entries[1].Role != models.RoleAssistant {
		t.Errorf("transcript roles = %s, %s; want user, assistant", entries[0].Role, entries[1].Role)
	}
}

func TestSaveRun_ReplaceByID(t *testing.T) {
	db := setupTestDB(t)

	run := sampleRun("run-1")
	if err := db.SaveRun(run, []models.MemoryEntry{{Role: models.RoleUser, Content: "old"}}); err != nil {
		t.Fatalf("first SaveRun: %v", err)
	}

	run.Result = "updated"
	if err := db.SaveRun(run, []models.MemoryEntry{{Role: models.RoleUser, Content: "new"}}); err != nil {
		t.Fatalf("second SaveRun: %v", err)
	}

	got, err := db.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Result != "updated" {
		t.Errorf("Result = %q, want the replacement", got.Result)
	}

	entries, err := db.GetTranscript("run-1")
	if err != nil {
		t.Fatalf("GetTranscript: %v", err)
	}
	if len(entries) != 1 || entries[0].Content != "new" {
		t.Errorf("transcript = %+v, want the replacement entry only", entries)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetRun("missing")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun error = %v, want ErrRunNotFound", err)
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	db := setupTestDB(t)

	old := sampleRun("run-old")
	old.StartedAt = time.Now().UTC().Add(-time.Hour)
	recent := sampleRun("run-recent")

	if err := db.SaveRun(old, nil); err != nil {
		t.Fatalf("SaveRun old: %v", err)
	}
	if err := db.SaveRun(recent, nil); err != nil {
		t.Fatalf("SaveRun recent: %v", err)
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != "run-recent" {
		t.Errorf("first run = %s, want run-recent", runs[0].ID)
	}

	limited, err := db.ListRuns(1)
	if err != nil {
		t.Fatalf("ListRuns limited: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit ignored: got %d runs", len(limited))
	}
}
