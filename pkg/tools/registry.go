// Package tools declares the local capabilities the reasoning provider may
// invoke and runs them on its behalf.
//
// Each tool binds a name to a typed argument struct. The struct's JSON schema
// is derived by reflection and offered to the provider; incoming raw
// arguments are validated against it before the executor runs.
//
//	type args struct {
//	    Website string `json:"website" jsonschema:"required,description=Site to open"`
//	}
//	tools.Register(reg, tools.Spec{Name: "open_website", SideEffect: tools.SideEffectNavigation},
//	    func(ctx context.Context, a args) (string, error) { ... })
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
)

// SideEffect classifies what a tool does outside the process.
type SideEffect int

const (
	SideEffectNone SideEffect = iota
	SideEffectNavigation
	SideEffectComputation
)

// String returns the side-effect class name.
func (s SideEffect) String() string {
	switch s {
	case SideEffectNone:
		return "none"
	case SideEffectNavigation:
		return "local-navigation"
	case SideEffectComputation:
		return "computation"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s SideEffect) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Spec describes a tool at registration time.
type Spec struct {
	Name        string
	Description string
	SideEffect  SideEffect
}

// Declaration is the provider-facing description of a tool.
type Declaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
	Required    []string       `json:"required,omitempty"`
	SideEffect  SideEffect     `json:"side_effect"`
}

type call func(ctx context.Context) (string, error)

type entry struct {
	decl Declaration
	// bind decodes raw arguments into the tool's argument type.
	bind func(raw json.RawMessage) (call, error)
}

// Registry holds the registered tools. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]*entry
	order  []string
	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		tools:  make(map[string]*entry),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "tools.registry")
	return r
}

// Register adds a tool whose arguments decode into A. The executor returns
// a short confirmation meant to be read back to the model.
func Register[A any](r *Registry, spec Spec, exec func(ctx context.Context, args A) (string, error)) error {
	if spec.Name == "" {
		return ErrEmptyName
	}
	if exec == nil {
		return fmt.Errorf("tools: %s: nil executor", spec.Name)
	}

	params, required, err := schemaFor[A]()
	if err != nil {
		return fmt.Errorf("tools: %s: %w", spec.Name, err)
	}

	e := &entry{
		decl: Declaration{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  params,
			Required:    required,
			SideEffect:  spec.SideEffect,
		},
		bind: func(raw json.RawMessage) (call, error) {
			var args A
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, &ToolError{Tool: spec.Name, Err: ErrInvalidArguments, Detail: err.Error()}
			}
			return func(ctx context.Context) (string, error) {
				return exec(ctx, args)
			}, nil
		},
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, spec.Name)
	}
	r.tools[spec.Name] = e
	r.order = append(r.order, spec.Name)
	return nil
}

// MustRegister is Register that panics on error. Use it for static tool sets.
func MustRegister[A any](r *Registry, spec Spec, exec func(ctx context.Context, args A) (string, error)) {
	if err := Register(r, spec, exec); err != nil {
		panic(err)
	}
}

// Declarations returns every tool declaration in registration order.
func (r *Registry) Declarations() []Declaration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Map(r.order, func(name string, _ int) Declaration {
		return r.tools[name].decl
	})
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Execute validates rawArgs against the named tool's schema and runs it.
//
// It returns ErrUnknownTool or ErrInvalidArguments (wrapped in *ToolError)
// when the call cannot be made. Failures inside the executor, panics
// included, never surface as errors: they are converted into a failure
// confirmation so every invocation still receives a result.
func (r *Registry) Execute(ctx context.Context, name, rawArgs string) (string, error) {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return "", &ToolError{Tool: name, Err: ErrUnknownTool}
	}

	raw, err := validate(e.decl, rawArgs)
	if err != nil {
		return "", err
	}
	fn, err := e.bind(raw)
	if err != nil {
		return "", err
	}

	result, err := safeRun(ctx, fn)
	if err != nil {
		r.logger.Warn("tool execution failed",
			"tool", name,
			"error", err,
		)
		return FailureText(&ToolError{Tool: name, Err: ErrExecutionFailed, Detail: err.Error()}), nil
	}

	r.logger.Debug("tool executed",
		"tool", name,
		"side_effect", e.decl.SideEffect.String(),
	)
	return result, nil
}

func safeRun(ctx context.Context, fn call) (result string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v\n%s", p, debug.Stack())
		}
	}()
	return fn(ctx)
}

// validate checks the payload is a JSON object carrying every required
// field with a non-null value. Type checks happen when decoding into the
// argument struct.
func validate(decl Declaration, rawArgs string) (json.RawMessage, error) {
	rawArgs = strings.TrimSpace(rawArgs)
	if rawArgs == "" {
		rawArgs = "{}"
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(rawArgs), &fields); err != nil {
		return nil, &ToolError{Tool: decl.Name, Err: ErrInvalidArguments, Detail: "arguments must be a JSON object"}
	}

	missing := lo.Filter(decl.Required, func(field string, _ int) bool {
		v, ok := fields[field]
		return !ok || string(v) == "null"
	})
	if len(missing) > 0 {
		return nil, &ToolError{
			Tool:   decl.Name,
			Err:    ErrInvalidArguments,
			Detail: "missing required field(s): " + strings.Join(missing, ", "),
		}
	}
	return json.RawMessage(rawArgs), nil
}

var reflector = jsonschema.Reflector{
	AllowAdditionalProperties: true,
	DoNotReference:            true,
}

// schemaFor reflects A into a JSON schema object map.
func schemaFor[A any]() (map[string]any, []string, error) {
	var zero A
	schema := reflector.Reflect(zero)

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal schema: %w", err)
	}
	var params map[string]any
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, nil, fmt.Errorf("decode schema: %w", err)
	}

	if t, _ := params["type"].(string); t != "object" {
		return nil, nil, errors.New("argument type must be a struct")
	}
	delete(params, "$schema")
	delete(params, "$id")
	delete(params, "additionalProperties")
	if _, ok := params["properties"]; !ok {
		params["properties"] = map[string]any{}
	}

	required := append([]string(nil), schema.Required...)
	if len(required) > 0 {
		params["required"] = required
	}
	return params, required, nil
}
