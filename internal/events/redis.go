package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/arbiterhq/arbiter/pkg/models"
)

// Sink receives every event a run emits, in emission order.
// Sinks are best-effort: a sink failure never fails the run.
type Sink interface {
	Publish(ctx context.Context, event models.Event) error
	Close() error
}

// TopicForRun returns the pub/sub topic events for a run are published on.
func TopicForRun(runID string) string {
	return "arbiter.run." + runID
}

// RedisSink republishes emitted events to Redis pub/sub so observers in
// other processes can tail a run. It reconnects automatically when the
// connection is lost.
type RedisSink struct {
	mu      sync.Mutex
	client  *redis.Client
	options *redis.Options
	logger  *log.Logger
}

// NewRedisSink creates a Redis-backed event sink using the given options.
func NewRedisSink(opts *redis.Options, logger *log.Logger) *RedisSink {
	if logger == nil {
		logger = log.Default()
	}
	return &RedisSink{
		client:  redis.NewClient(opts),
		options: opts,
		logger:  logger,
	}
}

// ensureConnection pings the server and reconnects if necessary.
func (s *RedisSink) ensureConnection(ctx context.Context) {
	if err := s.client.Ping(ctx).Err(); err != nil {
		s.logger.Println("events sink reconnecting to Redis", err)
		s.client = redis.NewClient(s.options)
	}
}

// Publish sends an event to the run's topic as JSON.
func (s *RedisSink) Publish(ctx context.Context, event models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureConnection(ctx)
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return s.client.Publish(ctx, TopicForRun(event.RunID), data).Err()
}

// Subscribe listens for events published for the given run.
// The returned channel is closed when ctx is cancelled.
func (s *RedisSink) Subscribe(ctx context.Context, runID string) (<-chan models.Event, error) {
	s.mu.Lock()
	s.ensureConnection(ctx)
	ps := s.client.Subscribe(ctx, TopicForRun(runID))
	s.mu.Unlock()

	ch := make(chan models.Event)
	go func() {
		defer close(ch)
		defer ps.Close()
		for {
			msg, err := ps.ReceiveMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Println("events sink receive error", err)
				continue
			}
			var ev models.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err == nil {
				select {
				case ch <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

// Close closes the underlying client.
func (s *RedisSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client.Close()
}
