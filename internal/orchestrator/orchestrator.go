package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arbiterhq/arbiter/internal/events"
	"github.com/arbiterhq/arbiter/internal/memory"
	"github.com/arbiterhq/arbiter/internal/orchestrator/policy"
	"github.com/arbiterhq/arbiter/internal/specialist"
	"github.com/arbiterhq/arbiter/internal/tool"
	"github.com/arbiterhq/arbiter/pkg/models"
)

// State represents the orchestrator's position in the task lifecycle.
type State string

const (
	// StateIdle is the initial state before Run is called.
	StateIdle State = "idle"
	// StateReceived indicates the request has been accepted.
	StateReceived State = "received"
	// StatePlanning indicates the request is being classified.
	StatePlanning State = "planning"
	// StateActing indicates the request is being handled directly.
	StateActing State = "acting"
	// StateDelegating indicates a sub-task is delegated to a specialist.
	StateDelegating State = "delegating"
	// StateRecording indicates a step result is being recorded.
	StateRecording State = "recording"
	// StateTerminating indicates the run is emitting its terminal events.
	StateTerminating State = "terminating"
	// StateTerminated indicates the run is over.
	StateTerminated State = "terminated"
)

// DirectHandlingResult is the fixed result for requests handled without
// delegation.
const DirectHandlingResult = "This request was handled directly without delegation."

// RunStore persists finished task runs and their transcripts.
// Implemented by the state package; nil disables persistence.
type RunStore interface {
	SaveRun(run *models.Run, transcript []models.MemoryEntry) error
}

// Config contains configuration options for the Orchestrator.
type Config struct {
	// Dispatcher routes delegated sub-tasks to specialists.
	// If nil, a dispatcher with the simulated specialists is used.
	Dispatcher *specialist.Dispatcher
	// Classifier decides the action category for each request.
	// If nil, the keyword classifier is used.
	Classifier Classifier
	// Policy holds retry/fallback and channel tunables.
	// If nil, policy.Default() is used.
	Policy *policy.Config
	// Emitter is the event channel binding for runs.
	// If nil, an unbound emitter is created: events go to its
	// fallback log instead of being silently lost.
	Emitter *events.Emitter
	// Sink optionally republishes every emitted event, e.g. to Redis.
	// Sink failures are recoverable and never fail the run.
	Sink events.Sink
	// Store persists finished runs. Nil disables persistence.
	Store RunStore
	// Logger receives debug output. Nil disables debug logging.
	Logger *DebugLogger
	// Source is the event source identifier. Defaults to "orchestrator".
	Source string
}

// Orchestrator drives one task run at a time through the lifecycle
// Received -> Planning -> Acting/Delegating -> Recording -> Terminating.
// Tools are registered once at construction and are immutable for the
// orchestrator's lifetime. Instances may be reused for sequential runs;
// each run gets a fresh memory log.
type Orchestrator struct {
	registry   *tool.Registry
	dispatcher *specialist.Dispatcher
	classifier Classifier
	policy     *policy.Config
	emitter    *events.Emitter
	sink       events.Sink
	store      RunStore
	logger     *DebugLogger
	source     string

	mu     sync.RWMutex
	state  State
	memory *memory.Log
	runID  string
}

// New creates an Orchestrator with the built-in delegate and terminate
// tools registered.
func New(cfg Config) *Orchestrator {
	if cfg.Dispatcher == nil {
		cfg.Dispatcher = specialist.NewDispatcher()
		cfg.Dispatcher.Register(specialist.SimulatedSearcher{})
		cfg.Dispatcher.Register(specialist.SimulatedCoder{})
	}
	if cfg.Classifier == nil {
		cfg.Classifier = NewKeywordClassifier()
	}
	if cfg.Policy == nil {
		cfg.Policy = policy.Default()
	}
	cfg.Policy.Validate()
	if cfg.Emitter == nil {
		cfg.Emitter = events.NewUnboundEmitter()
	}
	if cfg.Source == "" {
		cfg.Source = "orchestrator"
	}

	registry := tool.NewRegistry()
	registry.Register(tool.NewDelegateTool(cfg.Dispatcher))
	registry.Register(tool.NewTerminateTool())

	return &Orchestrator{
		registry:   registry,
		dispatcher: cfg.Dispatcher,
		classifier: cfg.Classifier,
		policy:     cfg.Policy,
		emitter:    cfg.Emitter,
		sink:       cfg.Sink,
		store:      cfg.Store,
		logger:     cfg.Logger,
		source:     cfg.Source,
		state:      StateIdle,
		memory:     memory.NewLog(),
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Memory returns the transcript of the current or most recent run.
func (o *Orchestrator) Memory() *memory.Log {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.memory
}

// Emitter returns the event channel binding.
func (o *Orchestrator) Emitter() *events.Emitter {
	return o.emitter
}

// Registry returns the tool registry.
func (o *Orchestrator) Registry() *tool.Registry {
	return o.registry
}

// BindEmitter rebinds the event channel for the next run.
// Only allowed between runs.
func (o *Orchestrator) BindEmitter(em *events.Emitter) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateIdle && o.state != StateTerminated {
		return fmt.Errorf("cannot rebind emitter in state %s", o.state)
	}
	if em == nil {
		em = events.NewUnboundEmitter()
	}
	o.emitter = em
	return nil
}

// Run executes one task run for the given prompt.
// It has no error return: every outcome, including failure and
// cancellation, is reported through events and the returned run record,
// and every run ends with exactly one final_result followed by one done.
func (o *Orchestrator) Run(ctx context.Context, prompt string) *models.Run {
	run := &models.Run{
		ID:        uuid.NewString(),
		Prompt:    prompt,
		Status:    models.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	o.mu.Lock()
	o.memory = memory.NewLog()
	o.runID = run.ID
	o.mu.Unlock()

	// Received: announce the request and open the transcript.
	o.setState(StateReceived)
	o.emit(ctx, models.EventLog, fmt.Sprintf("Received request: %q", prompt), "")
	o.Memory().Append(models.RoleUser, prompt)

	if err := ctx.Err(); err != nil {
		return o.finish(ctx, run, "", "run cancelled before planning: "+err.Error())
	}

	// Planning: classify the request.
	o.setState(StatePlanning)
	action := o.classifier.Classify(prompt)
	o.emit(ctx, models.EventLog, fmt.Sprintf("Planned action: %s", action), "")
	o.logger.Log("[run %s] classified as %s", run.ID, action)

	// Acting or Delegating: obtain a step result.
	var result string
	var failure string
	switch action {
	case ActionSearch:
		o.setState(StateDelegating)
		result, failure = o.delegate(ctx, specialist.RoleSearcher, prompt)
	case ActionCode:
		o.setState(StateDelegating)
		result, failure = o.delegate(ctx, specialist.RoleCoder, prompt)
	default:
		o.setState(StateActing)
		result = DirectHandlingResult
	}
	if err := ctx.Err(); err != nil {
		return o.finish(ctx, run, "", "run cancelled during execution: "+err.Error())
	}
	if failure != "" {
		return o.finish(ctx, run, "", failure)
	}

	// Recording: publish and remember the result.
	o.setState(StateRecording)
	o.emit(ctx, models.EventMessage, result, "")
	o.Memory().Append(models.RoleAssistant, result)

	// The reference plan is single-step, so recording always proceeds
	// to termination.
	return o.finish(ctx, run, result, "")
}

// delegate invokes the delegate_task tool for one sub-task, applying
// the retry and fallback policy on failure. It returns a step result
// or a failure reason; both are empty when the context is cancelled,
// which the caller handles.
func (o *Orchestrator) delegate(ctx context.Context, role, subTask string) (string, string) {
	args := map[string]any{
		"agent_role":      role,
		"sub_task_prompt": subTask,
	}

	attempts := o.policy.Delegation.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", ""
		}
		result, err := o.registry.Invoke(ctx, "delegate_task", args)
		if err == nil {
			return result, ""
		}
		lastErr = err
		o.emit(ctx, models.EventError, fmt.Sprintf("delegation to %s failed (attempt %d/%d)", role, attempt, attempts), err.Error())
		o.logger.Log("[delegate] role=%s attempt=%d/%d error=%v", role, attempt, attempts, err)
	}

	if o.policy.Delegation.FallbackToDirect {
		o.emit(ctx, models.EventLog, fmt.Sprintf("delegation to %s exhausted retries, falling back to direct handling", role), "")
		o.setState(StateActing)
		return DirectHandlingResult, ""
	}
	return "", fmt.Sprintf("delegation to %s failed after %d attempts: %v", role, attempts, lastErr)
}

// finish terminates the run: it emits exactly one final_result and one
// trailing done event, persists the run if a store is configured, and
// transitions to Terminated.
func (o *Orchestrator) finish(ctx context.Context, run *models.Run, result, failure string) *models.Run {
	o.setState(StateTerminating)

	if failure == "" {
		// Invoking the terminate tool is the sole sanctioned way to
		// end a run successfully.
		msg, err := o.registry.Invoke(ctx, "terminate", map[string]any{})
		if err != nil {
			msg = tool.DefaultTerminateMessage
		}
		if result == "" {
			result = msg
		}
		run.Status = models.RunStatusCompleted
		run.Result = result
		o.emit(ctx, models.EventFinalResult, msg, "")
	} else {
		run.Status = models.RunStatusFailed
		run.Error = failure
		o.emit(ctx, models.EventFinalResult, "Task run failed.", failure)
	}

	o.emit(ctx, models.EventDone, "", "")

	completed := time.Now().UTC()
	run.CompletedAt = &completed

	if o.store != nil {
		if err := o.store.SaveRun(run, o.Memory().Snapshot()); err != nil {
			o.logger.Log("[finish] persisting run %s failed: %v", run.ID, err)
		}
	}

	o.setState(StateTerminated)
	o.logger.Log("[run %s] terminated with status %s", run.ID, run.Status)
	return run
}

// emit builds an event and delivers it to the bound channel and, when
// configured, the remote sink. Sink failures are logged and swallowed:
// an unavailable channel must never fail the run.
func (o *Orchestrator) emit(ctx context.Context, typ models.EventType, content, errText string) {
	ev := models.Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Source:    o.source,
		RunID:     o.currentRunID(),
		Content:   content,
		Err:       errText,
		Timestamp: time.Now().UTC(),
	}
	o.emitter.Emit(ev)

	if o.sink != nil {
		if err := o.sink.Publish(ctx, ev); err != nil {
			o.logger.Log("[emit] sink publish failed: %v", err)
		}
	}
}

func (o *Orchestrator) currentRunID() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.runID
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	prev := o.state
	o.state = s
	o.mu.Unlock()
	o.logger.Log("[state] %s -> %s", prev, s)
}
