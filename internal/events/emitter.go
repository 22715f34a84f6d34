// Package events provides the event channel between a running task and its
// observer, plus optional sinks for out-of-process observation.
package events

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// sendTimeout is how long Emit waits for a stalled consumer before
// rerouting the event to the fallback log.
const sendTimeout = 100 * time.Millisecond

// Emitter handles event emission for a task run.
// It is single-producer/single-consumer: the orchestrator emits, one
// observer drains. When no channel is bound, every emission is captured
// in an in-process fallback log so no event is ever silently lost.
type Emitter struct {
	events       chan models.Event
	droppedCount atomic.Uint64

	mu       sync.Mutex
	fallback []models.Event
}

// NewEmitter creates an Emitter with a bound channel of the given buffer size.
func NewEmitter(bufferSize int) *Emitter {
	return &Emitter{
		events: make(chan models.Event, bufferSize),
	}
}

// NewUnboundEmitter creates an Emitter with no channel bound.
// All emissions go to the fallback log.
func NewUnboundEmitter() *Emitter {
	return &Emitter{}
}

// Bound returns true if a channel is bound to this emitter.
func (e *Emitter) Bound() bool {
	return e.events != nil
}

// Emit sends an event to the bound channel.
// If no channel is bound, the event is appended to the fallback log and
// rendered to the diagnostic log. If the channel is full, Emit tries with
// a timeout before rerouting the event to the fallback log and counting
// it as dropped; it never deadlocks the producer.
func (e *Emitter) Emit(event models.Event) {
	if e.events == nil {
		e.appendFallback(event)
		log.Printf("[events] no channel bound, event captured in fallback log: type=%s source=%s", event.Type, event.Source)
		return
	}

	// Try immediate send first.
	select {
	case e.events <- event:
		return
	default:
	}

	// Channel full. Give the receiver a chance to drain before dropping.
	select {
	case e.events <- event:
		return
	case <-time.After(sendTimeout):
		e.appendFallback(event)
		count := e.droppedCount.Add(1)
		if count%10 == 1 { // Log every 10th drop to avoid spam
			log.Printf("[events] WARNING: channel full, rerouted event to fallback (total dropped: %d): type=%s", count, event.Type)
		}
	}
}

// DroppedCount returns the number of events that could not be delivered
// to the bound channel and were rerouted to the fallback log.
func (e *Emitter) DroppedCount() uint64 {
	return e.droppedCount.Load()
}

// Events returns a read-only channel of events for the observer to drain.
// Returns nil if no channel is bound.
func (e *Emitter) Events() <-chan models.Event {
	return e.events
}

// Close closes the events channel.
// This should be called once the run has emitted its done event.
func (e *Emitter) Close() {
	if e.events != nil {
		close(e.events)
	}
}

// Fallback returns a copy of the fallback log.
func (e *Emitter) Fallback() []models.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Event, len(e.fallback))
	copy(out, e.fallback)
	return out
}

func (e *Emitter) appendFallback(event models.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fallback = append(e.fallback, event)
}
