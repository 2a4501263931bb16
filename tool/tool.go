// Package tool implements the function / tool calling subsystem that lets agents
// request structured capabilities (file reads, index searches, computations)
// by name, with signature validated arguments and results rendered as text.
package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentchat/internal/util"
)

// ParamType is the JSON schema type of a parameter.
type ParamType string

// Supported parameter types.
const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array"
	TypeObject  ParamType = "object"
)

// Param is one named, typed entry of a tool signature.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Optional    bool
	Enum        []string
}

// Signature is the ordered parameter list of a tool.
type Signature []Param

// fields converts the signature into the internal validation representation.
func (s Signature) fields() []util.Field {
	fields := make([]util.Field, len(s))
	for i, p := range s {
		fields[i] = util.Field{
			Name:        p.Name,
			Type:        string(p.Type),
			Description: p.Description,
			Required:    !p.Optional,
			Enum:        p.Enum,
		}
	}
	return fields
}

// Schema returns the JSON schema object advertised to policy backends.
func (s Signature) Schema() map[string]any {
	return util.CreateSchema(s.fields())
}

// Validate checks args against the signature.
func (s Signature) Validate(args Args) error {
	return util.ValidateArguments(args, s.fields())
}

// SignatureFromStruct derives a signature from a struct's exported fields.
// Field names follow json tags; a "description" tag documents the field and
// pointer or omitempty fields are optional.
func SignatureFromStruct(structType any) Signature {
	fields := util.FieldsFromStruct(structType)
	sig := make(Signature, len(fields))
	for i, f := range fields {
		sig[i] = Param{Name: f.Name, Type: ParamType(f.Type), Description: f.Description, Optional: !f.Required, Enum: f.Enum}
	}
	return sig
}

// Args is the argument mapping supplied with a tool call.
type Args map[string]any

// String returns the named argument as a string, or "" when absent.
func (a Args) String(name string) string {
	if v, ok := a[name].(string); ok {
		return v
	}
	return ""
}

// Int returns the named numeric argument as an int.
func (a Args) Int(name string) (int, bool) {
	switch v := a[name].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// Bool returns the named boolean argument.
func (a Args) Bool(name string) bool {
	v, _ := a[name].(bool)
	return v
}

// Tool defines the interface for extending agent capabilities with external functions.
//
// Tool implementations should:
//   - Provide clear, descriptive names (snake_case recommended) and descriptions
//   - Declare a Signature so arguments can be validated before Call
//   - Be safe for concurrent use; registries are shared across sessions
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool does.
	Description() string

	// Signature returns the ordered parameter list.
	Signature() Signature

	// Call executes the tool with already validated arguments.
	Call(ctx context.Context, args Args) (any, error)
}

// Func is the implementation signature of a Function tool.
type Func func(ctx context.Context, args Args) (any, error)

// Function is a generic adapter that exposes a plain Go function as a Tool.
// It holds no mutable state and is safe for concurrent use.
type Function struct {
	name        string
	description string
	signature   Signature
	fn          Func
}

// NewFunction constructs a Function tool from an explicit signature.
//
// Example:
//
//	readData := tool.NewFunction(
//	  "read_data",
//	  "Read every file of the data directory",
//	  tool.Signature{{Name: "datatype", Type: tool.TypeString, Description: "kind of data"}},
//	  func(ctx context.Context, args tool.Args) (any, error) { ... },
//	)
func NewFunction(name, description string, signature Signature, fn Func) *Function {
	return &Function{name: name, description: description, signature: signature, fn: fn}
}

// NewFunctionFromStruct derives the signature from a struct using reflection.
func NewFunctionFromStruct(name, description string, structType any, fn Func) *Function {
	return NewFunction(name, description, SignatureFromStruct(structType), fn)
}

// Name returns the tool name.
func (f *Function) Name() string { return f.name }

// Description returns the natural language description exposed to models.
func (f *Function) Description() string { return f.description }

// Signature returns the parameter list.
func (f *Function) Signature() Signature { return f.signature }

// Call invokes the wrapped function.
func (f *Function) Call(ctx context.Context, args Args) (any, error) {
	if f.fn == nil {
		return nil, fmt.Errorf("tool %s has no implementation", f.name)
	}
	return f.fn(ctx, args)
}
