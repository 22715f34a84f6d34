package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEventType_Valid(t *testing.T) {
	valid := []EventType{EventLog, EventMessage, EventError, EventFinalResult, EventDone}
	for _, typ := range valid {
		if !typ.Valid() {
			t.Errorf("%s should be valid", typ)
		}
	}
	if EventType("bogus").Valid() {
		t.Error("unknown event type should be invalid")
	}
}

func TestRunStatus_Valid(t *testing.T) {
	valid := []RunStatus{RunStatusRunning, RunStatusCompleted, RunStatusFailed}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if RunStatus("paused").Valid() {
		t.Error("unknown run status should be invalid")
	}
}

func TestEvent_JSONRoundTrip(t *testing.T) {
	ev := Event{
		ID:        "ev-1",
		Type:      EventFinalResult,
		Source:    "orchestrator",
		RunID:     "run-1",
		Content:   "Task terminated successfully.",
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != ev {
		t.Errorf("round trip = %+v, want %+v", got, ev)
	}
}
