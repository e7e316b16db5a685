package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
)

// ToolHandler executes one model-requested function invocation. args is the
// raw JSON argument object from the wire.
type ToolHandler func(ctx context.Context, args json.RawMessage) (any, error)

// Tool is a locally-executable function exposed to the model: a declaration
// (name, description, parameter schema, required fields) plus its handler.
type Tool struct {
	Name        string
	Description string
	Parameters  any
	Required    []string

	Handler ToolHandler
}

// Parameter describes a single named tool parameter for hand-written
// declarations.
type Parameter struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// NewTool builds a tool from an explicit parameter map.
func NewTool(name, description string, parameters map[string]Parameter, required []string, handler ToolHandler) Tool {
	schema := map[string]any{"type": "object"}
	if len(parameters) > 0 {
		schema["properties"] = parameters
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	return Tool{
		Name:        name,
		Description: description,
		Parameters:  schema,
		Required:    required,
		Handler:     handler,
	}
}

// NewToolFor builds a tool whose parameter schema is reflected from the
// handler's typed parameter struct, and whose handler unmarshals the wire
// arguments into that struct before invoking the typed callback.
func NewToolFor[T any](name, description string, handler func(ctx context.Context, parameters T) (any, error)) Tool {
	reflector := jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}
	schema := reflector.Reflect(new(T))
	schema.Version = ""

	var required []string
	if schema.Required != nil {
		required = schema.Required
	}

	return Tool{
		Name:        name,
		Description: description,
		Parameters:  schema,
		Required:    required,
		Handler: func(ctx context.Context, args json.RawMessage) (any, error) {
			var parameters T
			if len(args) > 0 {
				if err := json.Unmarshal(args, &parameters); err != nil {
					return nil, fmt.Errorf("failed to unmarshal arguments for tool %q: %w", name, err)
				}
			}
			return handler(ctx, parameters)
		},
	}
}

// FunctionDeclaration is the wire form of a tool declaration sent in the
// setup message.
type FunctionDeclaration struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

// toolRegistry is the instance-scoped name→handler map. It preserves
// declaration order for the setup message and is never shared across
// sessions.
type toolRegistry struct {
	mu    sync.Mutex
	order []string
	tools map[string]Tool
}

func (r *toolRegistry) add(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tools == nil {
		r.tools = map[string]Tool{}
	}
	if _, exists := r.tools[tool.Name]; !exists {
		r.order = append(r.order, tool.Name)
	}
	r.tools[tool.Name] = tool
}

func (r *toolRegistry) get(name string) (Tool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tool, ok := r.tools[name]
	return tool, ok
}

func (r *toolRegistry) declarations() []FunctionDeclaration {
	r.mu.Lock()
	defer r.mu.Unlock()

	declarations := make([]FunctionDeclaration, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		declarations = append(declarations, FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.Parameters,
		})
	}
	return declarations
}
