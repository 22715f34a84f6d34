package tool

import (
	"context"
	"sync"
)

// Registry maps tool names to tools.
// It provides thread-safe registration and lookup; registration is
// overwrite-by-name, last registration wins.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool under its descriptor name, replacing any tool
// already registered under that name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Descriptor().Name] = t
}

// Lookup returns the tool registered under name.
// Returns ErrToolNotFound if no such tool exists.
func (r *Registry) Lookup(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, ErrToolNotFound
	}
	return t, nil
}

// Names returns the registered tool names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Invoke looks up a tool by name, validates args against its schema,
// and executes it. Validation failures are returned before execution
// as *InvalidArgumentsError; a missing tool returns ErrToolNotFound.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	t, err := r.Lookup(name)
	if err != nil {
		return "", err
	}
	if err := t.Descriptor().Validate(args); err != nil {
		return "", err
	}
	return t.Execute(ctx, args)
}
