package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/arbiterhq/arbiter/internal/events"
	"github.com/arbiterhq/arbiter/internal/orchestrator/policy"
	"github.com/arbiterhq/arbiter/internal/specialist"
	"github.com/arbiterhq/arbiter/pkg/models"
)

// drainRun executes a run with a bound emitter and collects all events.
func drainRun(t *testing.T, o *Orchestrator, prompt string) (*models.Run, []models.Event) {
	t.Helper()

	done := make(chan *models.Run, 1)
	go func() {
		done <- o.Run(context.Background(), prompt)
		o.Emitter().Close()
	}()

	var evs []models.Event
	for ev := range o.Emitter().Events() {
		evs = append(evs, ev)
	}
	return <-done, evs
}

func countType(evs []models.Event, typ models.EventType) int {
	n := 0
	for _, ev := range evs {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func TestOrchestrator_Run_SearchScenario(t *testing.T) {
	o := New(Config{Emitter: events.NewEmitter(32)})

	run, evs := drainRun(t, o, "Find information about the latest AI advancements")

	if run.Status != models.RunStatusCompleted {
		t.Fatalf("run status = %s, want completed", run.Status)
	}

	// Exactly one final_result, exactly one done, done last.
	if n := countType(evs, models.EventFinalResult); n != 1 {
		t.Errorf("final_result count = %d, want 1", n)
	}
	if n := countType(evs, models.EventDone); n != 1 {
		t.Errorf("done count = %d, want 1", n)
	}
	if evs[len(evs)-1].Type != models.EventDone {
		t.Errorf("last event = %s, want done", evs[len(evs)-1].Type)
	}
	if evs[len(evs)-2].Type != models.EventFinalResult {
		t.Errorf("second to last event = %s, want final_result", evs[len(evs)-2].Type)
	}

	// The message event carries a non-empty summary.
	var message string
	for _, ev := range evs {
		if ev.Type == models.EventMessage {
			message = ev.Content
		}
	}
	if message == "" {
		t.Error("message event should carry a non-empty summary")
	}
	if !strings.Contains(message, specialist.RoleSearcher) {
		t.Errorf("message %q should come from the searcher delegation", message)
	}

	// Memory: exactly one user entry then one assistant entry.
	entries := o.Memory().Snapshot()
	if len(entries) != 2 {
		t.Fatalf("memory has %d entries, want 2", len(entries))
	}
	if entries[0].Role != models.RoleUser {
		t.Errorf("entry 0 role = %s, want user", entries[0].Role)
	}
	if entries[1].Role != models.RoleAssistant {
		t.Errorf("entry 1 role = %s, want assistant", entries[1].Role)
	}

	if o.State() != StateTerminated {
		t.Errorf("state = %s, want terminated", o.State())
	}
}

func TestOrchestrator_Run_CodeScenario(t *testing.T) {
	o := New(Config{Emitter: events.NewEmitter(32)})

	run, evs := drainRun(t, o, "Please develop a script")

	if run.Status != models.RunStatusCompleted {
		t.Fatalf("run status = %s, want completed", run.Status)
	}

	var message string
	for _, ev := range evs {
		if ev.Type == models.EventMessage {
			message = ev.Content
		}
	}
	if !strings.Contains(message, "```") {
		t.Errorf("message %q should contain a code block marker", message)
	}
}

func TestOrchestrator_Run_DirectScenario(t *testing.T) {
	o := New(Config{Emitter: events.NewEmitter(32)})

	run, evs := drainRun(t, o, "What is 2+2?")

	if run.Status != models.RunStatusCompleted {
		t.Fatalf("run status = %s, want completed", run.Status)
	}
	if run.Result != DirectHandlingResult {
		t.Errorf("result = %q, want the fixed direct-handling string", run.Result)
	}

	var message string
	for _, ev := range evs {
		if ev.Type == models.EventMessage {
			message = ev.Content
		}
	}
	if message != DirectHandlingResult {
		t.Errorf("message = %q, want %q", message, DirectHandlingResult)
	}
}

func TestOrchestrator_Run_UnboundEmitter_NoEventLost(t *testing.T) {
	o := New(Config{})

	run := o.Run(context.Background(), "What is 2+2?")

	if run.Status != models.RunStatusCompleted {
		t.Fatalf("run status = %s, want completed", run.Status)
	}

	// Direct path emits: received log, planned log, message,
	// final_result, done.
	fb := o.Emitter().Fallback()
	if len(fb) != 5 {
		t.Fatalf("fallback log has %d events, want 5", len(fb))
	}
	if fb[len(fb)-1].Type != models.EventDone {
		t.Errorf("last fallback event = %s, want done", fb[len(fb)-1].Type)
	}
}

func TestOrchestrator_Run_DelegationFailure_RetriesOnce(t *testing.T) {
	flaky := &specialist.Scripted{
		RoleName:  specialist.RoleSearcher,
		Result:    "eventual summary",
		Err:       errors.New("backend hiccup"),
		FailFirst: true,
	}
	d := specialist.NewDispatcher()
	d.Register(flaky)

	o := New(Config{Dispatcher: d, Emitter: events.NewEmitter(32)})

	run, evs := drainRun(t, o, "search for something flaky")

	if run.Status != models.RunStatusCompleted {
		t.Fatalf("run status = %s, want completed after retry", run.Status)
	}
	if flaky.Calls != 2 {
		t.Errorf("specialist invoked %d times, want 2 (one retry)", flaky.Calls)
	}
	if n := countType(evs, models.EventError); n != 1 {
		t.Errorf("error event count = %d, want 1 for the failed attempt", n)
	}
}

func TestOrchestrator_Run_DelegationFailure_FallsBackToDirect(t *testing.T) {
	broken := &specialist.Scripted{
		RoleName: specialist.RoleSearcher,
		Err:      errors.New("permanently down"),
	}
	d := specialist.NewDispatcher()
	d.Register(broken)

	o := New(Config{Dispatcher: d, Emitter: events.NewEmitter(32)})

	run, evs := drainRun(t, o, "search for something broken")

	// The failure never escapes Run; the run completes via fallback.
	if run.Status != models.RunStatusCompleted {
		t.Fatalf("run status = %s, want completed via fallback", run.Status)
	}
	if run.Result != DirectHandlingResult {
		t.Errorf("result = %q, want the direct-handling fallback", run.Result)
	}
	if countType(evs, models.EventFinalResult) != 1 || countType(evs, models.EventDone) != 1 {
		t.Error("fallback run should still emit final_result and done exactly once")
	}
}

func TestOrchestrator_Run_DelegationFailure_NoFallbackFailsRun(t *testing.T) {
	broken := &specialist.Scripted{
		RoleName: specialist.RoleCoder,
		Err:      errors.New("permanently down"),
	}
	d := specialist.NewDispatcher()
	d.Register(broken)

	pol := policy.Default()
	pol.Delegation.FallbackToDirect = false

	o := New(Config{Dispatcher: d, Policy: pol, Emitter: events.NewEmitter(32)})

	run, evs := drainRun(t, o, "develop a thing that cannot be built")

	if run.Status != models.RunStatusFailed {
		t.Fatalf("run status = %s, want failed", run.Status)
	}
	if run.Error == "" {
		t.Error("failed run should carry a failure reason")
	}

	// Observers still receive the terminal pair.
	if evs[len(evs)-1].Type != models.EventDone {
		t.Errorf("last event = %s, want done", evs[len(evs)-1].Type)
	}
	final := evs[len(evs)-2]
	if final.Type != models.EventFinalResult || final.Err == "" {
		t.Errorf("final event = %+v, want a failed final_result", final)
	}
}

func TestOrchestrator_Run_UnknownRole_DoesNotEscape(t *testing.T) {
	// Empty dispatcher: every delegation hits an unknown role.
	o := New(Config{Dispatcher: specialist.NewDispatcher(), Emitter: events.NewEmitter(32)})

	run, _ := drainRun(t, o, "search with nobody home")

	if run.Status != models.RunStatusCompleted {
		t.Fatalf("run status = %s, want completed via fallback", run.Status)
	}
}

func TestOrchestrator_Run_Cancelled_StillEmitsTerminalPair(t *testing.T) {
	o := New(Config{Emitter: events.NewEmitter(32)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan *models.Run, 1)
	go func() {
		done <- o.Run(ctx, "search for anything")
		o.Emitter().Close()
	}()

	var evs []models.Event
	for ev := range o.Emitter().Events() {
		evs = append(evs, ev)
	}
	run := <-done

	if run.Status != models.RunStatusFailed {
		t.Fatalf("run status = %s, want failed on cancellation", run.Status)
	}
	if !strings.Contains(run.Error, "cancelled") {
		t.Errorf("error = %q, want a cancellation reason", run.Error)
	}
	if len(evs) < 2 {
		t.Fatalf("got %d events, want at least final_result and done", len(evs))
	}
	if evs[len(evs)-2].Type != models.EventFinalResult || evs[len(evs)-1].Type != models.EventDone {
		t.Error("cancelled run must still end with final_result then done")
	}
}

func TestOrchestrator_Run_Reuse_FreshMemoryPerRun(t *testing.T) {
	o := New(Config{})

	first := o.Run(context.Background(), "What is 2+2?")
	if first.Status != models.RunStatusCompleted {
		t.Fatalf("first run status = %s", first.Status)
	}

	second := o.Run(context.Background(), "What is 3+3?")
	if second.Status != models.RunStatusCompleted {
		t.Fatalf("second run status = %s", second.Status)
	}
	if first.ID == second.ID {
		t.Error("each run should get its own ID")
	}

	entries := o.Memory().Snapshot()
	if len(entries) != 2 {
		t.Errorf("memory has %d entries after reuse, want 2 (fresh log per run)", len(entries))
	}
	if entries[0].Content != "What is 3+3?" {
		t.Errorf("memory belongs to run %q, want the second run's prompt", entries[0].Content)
	}
}

func TestOrchestrator_Run_TerminateMessageIsFinalResult(t *testing.T) {
	o := New(Config{Emitter: events.NewEmitter(32)})

	_, evs := drainRun(t, o, "What is 2+2?")

	var final models.Event
	for _, ev := range evs {
		if ev.Type == models.EventFinalResult {
			final = ev
		}
	}
	if final.Content != "Task terminated successfully." {
		t.Errorf("final_result content = %q, want the terminate tool's message", final.Content)
	}
}

func TestOrchestrator_BindEmitter_RejectedMidRun(t *testing.T) {
	o := New(Config{})
	o.setState(StatePlanning)

	if err := o.BindEmitter(events.NewEmitter(1)); err == nil {
		t.Error("BindEmitter should be rejected while a run is active")
	}

	o.setState(StateTerminated)
	if err := o.BindEmitter(nil); err != nil {
		t.Errorf("BindEmitter between runs: %v", err)
	}
	if o.Emitter().Bound() {
		t.Error("binding nil should install an unbound fallback emitter")
	}
}

func TestOrchestrator_EventTimestampsNonDecreasing(t *testing.T) {
	o := New(Config{Emitter: events.NewEmitter(32)})

	_, evs := drainRun(t, o, "search for ordering guarantees")

	for i := 1; i < len(evs); i++ {
		if evs[i].Timestamp.Before(evs[i-1].Timestamp) {
			t.Errorf("event %d timestamp %v precedes event %d timestamp %v",
				i, evs[i].Timestamp, i-1, evs[i-1].Timestamp)
		}
	}
}
