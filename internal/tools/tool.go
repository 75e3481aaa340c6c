// Package tools implements the Turbo tool catalog: JSON-schema-validated
// tools over the Turbo API, exposed to the agent under the mcp__turbo__
// namespace.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Namespace prefixes every Turbo tool name as seen by the model.
const Namespace = "mcp__turbo__"

// Qualified returns the namespaced form of a bare tool name.
func Qualified(name string) string {
	return Namespace + name
}

// BareName strips the namespace prefix, if present.
func BareName(name string) string {
	return strings.TrimPrefix(name, Namespace)
}

// Kind partitions tools into those that only read and those that modify data.
type Kind string

const (
	KindRead  Kind = "read"
	KindWrite Kind = "write"
)

// Tool is a single callable tool.
type Tool interface {
	// Name returns the namespaced tool name.
	Name() string

	// Description returns a short description for the model.
	Description() string

	// Schema returns the JSON schema for the tool's input.
	Schema() json.RawMessage

	// Kind reports whether the tool reads or writes.
	Kind() Kind

	// Execute runs the tool with raw JSON input.
	Execute(ctx context.Context, input json.RawMessage) (*Result, error)
}

// Result is the outcome of a tool execution. Errors the agent should see are
// reported as IsError results, not Go errors.
type Result struct {
	Content string
	IsError bool
}

// Errorf builds an error Result for the agent.
func Errorf(format string, args ...any) *Result {
	return &Result{Content: fmt.Sprintf(format, args...), IsError: true}
}

// Registry manages available tools with thread-safe registration and lookup.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool by its name. Re-registering a name replaces the tool.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name()]; !exists {
		r.order = append(r.order, tool.Name())
	}
	r.tools[tool.Name()] = tool
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// All returns the registered tools in registration order.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		all = append(all, r.tools[name])
	}
	return all
}

// Execute runs a tool by name. An unknown name yields an error Result, not a
// Go error, so the agent can correct itself.
func (r *Registry) Execute(ctx context.Context, name string, input json.RawMessage) (*Result, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return Errorf("tool not found: %s", name), nil
	}
	return tool.Execute(ctx, input)
}
