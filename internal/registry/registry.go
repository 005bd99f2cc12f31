package registry

import (
	"context"
	"fmt"
	"regexp"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"nmc-mcp/internal/api"
	"nmc-mcp/internal/metrics"
	"nmc-mcp/pkg/logging"

	"github.com/google/uuid"
)

var toolNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// Dispatcher is what transports need from the registry.
type Dispatcher interface {
	List() []api.ToolDescriptor
	Dispatch(ctx context.Context, name string, args map[string]interface{}) api.ToolResult
}

// Option configures a Registry.
type Option func(*Registry)

// WithMetrics counts dispatches by tool and outcome.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// Registry holds the tool catalog and dispatches invocations.
//
// Registration is expected to happen during startup, before the first
// dispatch, but the registry is safe for concurrent use either way.
// Descriptors are copied on registration and on List, so callers can never
// mutate a registered tool.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]api.ToolDescriptor
	metrics *metrics.Metrics
}

var _ Dispatcher = (*Registry)(nil)

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{tools: make(map[string]api.ToolDescriptor)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a tool to the catalog.
//
// Args:
//   - desc: Tool descriptor with a unique name, a handler and a parameter schema
//
// Returns *api.RegistrationError if the name is empty, malformed or already
// taken, the handler is nil, or the schema is malformed (unknown types, enums
// on non-scalar parameters, defaults that violate their own schema).
func (r *Registry) Register(desc api.ToolDescriptor) error {
	if err := validateDescriptor(desc); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[desc.Name]; exists {
		return &api.RegistrationError{Name: desc.Name, Message: "a tool with this name is already registered"}
	}
	r.tools[desc.Name] = copyDescriptor(desc)
	logging.Debug("Registry", "Registered tool %s (%d parameters)", desc.Name, len(desc.Parameters))
	return nil
}

// List returns the catalog sorted by tool name.
func (r *Registry) List() []api.ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]api.ToolDescriptor, 0, len(r.tools))
	for _, desc := range r.tools {
		out = append(out, copyDescriptor(desc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get returns the named descriptor.
func (r *Registry) Get(name string) (api.ToolDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.tools[name]
	if !ok {
		return api.ToolDescriptor{}, false
	}
	return copyDescriptor(desc), true
}

// Len is the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Dispatch validates args against the named tool's schema and runs its
// handler. It never returns an error; every failure is carried in the
// result, classified into the error taxonomy.
//
// Args:
//   - ctx: Context passed through to the handler
//   - name: Registered tool name
//   - args: Raw arguments as decoded from the host request (may be nil)
//
// Returns a successful ToolResult with the handler payload, or a failed one
// for unknown tools (not_found), invalid arguments (validation, naming the
// field, without calling the handler), handler errors and handler panics
// (internal).
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]interface{}) api.ToolResult {
	requestID := uuid.NewString()
	start := time.Now()
	logging.Debug("Registry", "Dispatching %s (request %s)", name, requestID)

	result := r.dispatch(ctx, name, args, requestID)

	elapsed := time.Since(start)
	outcome := "success"
	if !result.Success {
		outcome = string(result.Error.Kind)
		logging.Warn("Registry", "Tool %s failed after %v (request %s): [%s] %s",
			name, elapsed.Round(time.Millisecond), requestID, result.Error.Kind, result.Error.Message)
	} else {
		logging.Info("Registry", "Tool %s completed in %v (request %s)", name, elapsed.Round(time.Millisecond), requestID)
	}
	if _, known := r.Get(name); !known {
		// Keep label cardinality bounded.
		name = "unknown"
	}
	r.metrics.IncDispatch(name, outcome)
	return result
}

func (r *Registry) dispatch(ctx context.Context, name string, args map[string]interface{}, requestID string) api.ToolResult {
	desc, ok := r.Get(name)
	if !ok {
		return api.NewErrorResult(api.NewNotFoundError("tool", name))
	}

	validated, err := validateArgs(desc, args)
	if err != nil {
		return api.NewErrorResult(err)
	}

	payload, err := invoke(ctx, desc, validated, requestID)
	if err != nil {
		return api.NewErrorResult(err)
	}
	return api.NewSuccessResult(payload)
}

// invoke runs the handler, converting a panic into an internal error.
func invoke(ctx context.Context, desc api.ToolDescriptor, args api.Args, requestID string) (payload interface{}, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("tool %s failed unexpectedly: %v", desc.Name, rec)
			logging.Error("Registry", err, "Recovered panic in tool %s (request %s)\n%s", desc.Name, requestID, debug.Stack())
		}
	}()
	return desc.Handler(ctx, args)
}

func copyDescriptor(desc api.ToolDescriptor) api.ToolDescriptor {
	params := make([]api.ParameterMetadata, len(desc.Parameters))
	for i, p := range desc.Parameters {
		if p.Enum != nil {
			p.Enum = append([]string(nil), p.Enum...)
		}
		params[i] = p
	}
	desc.Parameters = params
	return desc
}
