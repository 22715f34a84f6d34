// Package policy defines configurable policy parameters for orchestrator
// behavior. This centralizes threshold values so they can be configured
// and tested instead of being scattered across implementation files.
package policy

// Config contains all configurable policy parameters for the orchestrator.
type Config struct {
	// Delegation controls retry and fallback on specialist failure.
	Delegation DelegationPolicy

	// Events controls the event channel.
	Events EventsPolicy
}

// DelegationPolicy controls how delegation failures are handled.
type DelegationPolicy struct {
	// MaxRetries is how many times a failed sub-task is retried
	// before falling back.
	MaxRetries int

	// FallbackToDirect falls back to direct handling after retries
	// are exhausted instead of failing the run.
	FallbackToDirect bool
}

// EventsPolicy controls event channel behavior.
type EventsPolicy struct {
	// BufferSize is the buffer size for the event channel.
	BufferSize int
}

// Default returns the default policy configuration.
func Default() *Config {
	return &Config{
		Delegation: DelegationPolicy{
			MaxRetries:       1,
			FallbackToDirect: true,
		},
		Events: EventsPolicy{
			BufferSize: 100,
		},
	}
}

// Validate checks that policy values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Delegation.MaxRetries < 0 {
		c.Delegation.MaxRetries = 1
	}
	if c.Events.BufferSize < 1 {
		c.Events.BufferSize = 100
	}
	return nil
}
