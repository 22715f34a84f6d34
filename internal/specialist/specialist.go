// Package specialist defines the external, role-identified capabilities
// the orchestrator delegates sub-tasks to, and the dispatcher that
// routes delegation requests by role.
package specialist

import (
	"context"
	"fmt"
	"sync"
)

// Specialist is an opaque capability invoked by role with a sub-task
// description. The core never inspects how a specialist does its work.
type Specialist interface {
	// Role returns the role identifier this specialist serves.
	Role() string
	// Invoke performs the sub-task and returns its result text.
	Invoke(ctx context.Context, subTask string) (string, error)
}

// Dispatcher routes delegation requests to specialists by role.
// It provides thread-safe registration and invocation.
type Dispatcher struct {
	mu          sync.RWMutex
	specialists map[string]Specialist
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		specialists: make(map[string]Specialist),
	}
}

// Register adds a specialist under its role, replacing any specialist
// already registered for that role.
func (d *Dispatcher) Register(s Specialist) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.specialists[s.Role()] = s
}

// Roles returns the registered role identifiers.
func (d *Dispatcher) Roles() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	roles := make([]string, 0, len(d.specialists))
	for role := range d.specialists {
		roles = append(roles, role)
	}
	return roles
}

// Invoke routes a sub-task to the specialist registered for role.
// An unknown role is a delegation failure, not a panic.
func (d *Dispatcher) Invoke(ctx context.Context, role, subTask string) (string, error) {
	d.mu.RLock()
	s, ok := d.specialists[role]
	d.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("no specialist registered for role %q", role)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.Invoke(ctx, subTask)
}
