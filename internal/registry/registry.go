// Package registry implements the host-side tool registry (spec §4.4):
// enumerate registered tools, assign a monotonic version, and serve
// list/get/invoke requests for the agent's dispatcher.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/hostbridge/ide-agent-bridge/internal/logger"
	"github.com/hostbridge/ide-agent-bridge/internal/toolapi"
)

var logRegistry = logger.New("registry:registry")

// ValidationError reports a rejected tool registration, in the
// field/message/suggestion shape the teacher's configuration validator used.
type ValidationError struct {
	Field      string
	Message    string
	Suggestion string
}

func (e *ValidationError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Suggestion)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrUnknownTool is returned by Get/Invoke for a name with no registration.
type ErrUnknownTool string

func (e ErrUnknownTool) Error() string { return fmt.Sprintf("unknown tool: %s", string(e)) }

// Registry holds every tool instantiated for the current reload cycle.
// Tool registration is frozen before the agent server starts accepting
// connections (spec §4.3); after Freeze, readers may assume a stable
// registry for the lifetime of the accept loop (spec §4.4 "never mutated
// mid-session").
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]toolapi.Tool
	version int
	frozen  bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{tools: make(map[string]toolapi.Tool)}
}

// Register adds a tool instance. Names must be unique and non-empty; nil
// tools are rejected (spec §4.4 invariants). Register is a no-op error,
// not fatal to registry construction — callers log and skip, matching the
// teacher's "failure to instantiate one tool is logged and skipped" policy.
func (r *Registry) Register(tool toolapi.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return &ValidationError{Field: "registry", Message: "registry is frozen, cannot register after server start"}
	}
	if tool == nil {
		return &ValidationError{Field: "tool", Message: "tool is nil"}
	}
	name := tool.Name()
	if name == "" {
		return &ValidationError{Field: "name", Message: "tool name is empty", Suggestion: "give the tool a non-empty snake_case name"}
	}
	if _, exists := r.tools[name]; exists {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("duplicate tool name %q", name), Suggestion: "rename one of the conflicting tools"}
	}
	if err := toolapi.ValidateParameterSchema(tool.Describe().ParameterSchema); err != nil {
		return &ValidationError{Field: "parameterSchema", Message: fmt.Sprintf("tool %q has invalid schema: %v", name, err)}
	}

	r.tools[name] = tool
	logRegistry.Printf("registered tool: name=%s requiresMainThread=%v", name, tool.Describe().RequiresMainThread)
	return nil
}

// Discover re-populates the registry from factories, bumping the version
// counter. Used at startup and after each host reload (spec §3 "Tool
// registry" lifecycle). A factory that returns an error is logged and
// skipped rather than aborting the whole discovery pass.
func (r *Registry) Discover(factories []func() (toolapi.Tool, error)) {
	r.mu.Lock()
	r.tools = make(map[string]toolapi.Tool)
	r.frozen = false
	r.mu.Unlock()

	for _, factory := range factories {
		tool, err := factory()
		if err != nil {
			logRegistry.Printf("skipping tool: factory failed: %v", err)
			continue
		}
		if err := r.Register(tool); err != nil {
			logRegistry.Printf("skipping tool: %v", err)
		}
	}

	r.mu.Lock()
	r.version++
	v := r.version
	r.mu.Unlock()
	logRegistry.Printf("discovery complete: version=%d tools=%d", v, len(r.tools))
}

// Freeze prevents further registration. Call once, before the agent server
// starts accepting connections.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Version returns the current catalog version.
func (r *Registry) Version() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// List returns the current catalog: version plus every tool's descriptor.
func (r *Registry) List() toolapi.Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]toolapi.Descriptor, 0, len(r.tools))
	for _, tool := range r.tools {
		d := tool.Describe()
		d.ParameterSchema = toolapi.NormalizeSchema(d.ParameterSchema)
		descriptors = append(descriptors, d)
	}
	return toolapi.Catalog{Version: r.version, Tools: descriptors}
}

// Get returns the tool registered under name, or ErrUnknownTool.
func (r *Registry) Get(name string) (toolapi.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	if !ok {
		return nil, ErrUnknownTool(name)
	}
	return tool, nil
}

// RequiresMainThread reports whether invoking name requires main-thread
// dispatch. Unknown tools are treated as background-safe so their error
// response can be produced immediately (spec §4.3 step 3).
func (r *Registry) RequiresMainThread(name string) bool {
	tool, err := r.Get(name)
	if err != nil {
		return false
	}
	return tool.Describe().RequiresMainThread
}

// Invoke validates argumentsJSON against the tool's schema and dispatches
// to it. The caller is responsible for running this on the correct
// thread/lane; Invoke itself does not switch goroutines.
func (r *Registry) Invoke(ctx context.Context, name, argumentsJSON string) (interface{}, error) {
	tool, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	descriptor := tool.Describe()
	if err := toolapi.ValidateArguments(descriptor.ParameterSchema, argumentsJSON); err != nil {
		return nil, fmt.Errorf("invalid arguments for tool %q: %w", name, err)
	}

	return tool.Invoke(ctx, argumentsJSON)
}
