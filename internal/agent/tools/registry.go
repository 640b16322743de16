// Package tools defines the actions available to the reasoning loops and the
// registry that dispatches them.
package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Tool is a single action a reasoning loop can take. Implementations must be
// thread-safe and respect context cancellation. The returned string is the
// observation fed back into the loop.
type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, input string) (string, error)
}

// Registry manages tools and handles dispatch. It is thread-safe.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. A tool with the same name is replaced in place.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Get retrieves a tool by name. Returns nil if not registered.
func (r *Registry) Get(name string) Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Describe renders the tool list for inclusion in a loop prompt.
func (r *Registry) Describe() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var b strings.Builder
	for _, name := range r.order {
		fmt.Fprintf(&b, "- %s: %s\n", name, r.tools[name].Description())
	}
	return b.String()
}

// Execute dispatches a tool call and always returns an observation string.
// Unknown tools and execution failures are reported as observations rather
// than errors, so a bad call costs the loop an iteration, not the turn.
func (r *Registry) Execute(ctx context.Context, name, input string) string {
	tool := r.Get(name)
	if tool == nil {
		return fmt.Sprintf("Error: unknown tool %q. Available tools: %s", name, strings.Join(r.Names(), ", "))
	}
	out, err := tool.Execute(ctx, input)
	if err != nil {
		return fmt.Sprintf("Error executing %s: %v", name, err)
	}
	return out
}
