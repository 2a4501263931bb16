package tool

import (
	"errors"
	"fmt"

	"github.com/hupe1980/agentchat/internal/util"
)

// Error codes carried by tool error payloads.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodeNotFound   = "NOT_FOUND"
)

// ErrToolNotFound is wrapped by ToolExecutionError when no tool is registered
// under the requested name.
var ErrToolNotFound = errors.New("tool not found")

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// DuplicateNameError is returned by Registry.Register when the name is taken.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

// ArgumentMismatchError reports missing, extra or mistyped tool arguments, or
// an argument payload that is not a JSON object.
type ArgumentMismatchError struct {
	Tool  string
	Field string
	Kind  string // missing, extra, mistyped or malformed
	Err   error
}

func (e *ArgumentMismatchError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("tool error [%s] in %s: %v", CodeValidation, e.Tool, e.Err)
	}
	return fmt.Sprintf("tool error [%s] in %s: %s argument %q: %v", CodeValidation, e.Tool, e.Kind, e.Field, e.Err)
}

func (e *ArgumentMismatchError) Unwrap() error { return e.Err }

// Code returns the payload error code.
func (e *ArgumentMismatchError) Code() string { return CodeValidation }

// ToolExecutionError wraps a failure raised by (or while locating) a tool.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool error [%s] in %s: %v", e.Code(), e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// Code returns the payload error code.
func (e *ToolExecutionError) Code() string {
	if errors.Is(e.Err, ErrToolNotFound) {
		return CodeNotFound
	}
	return CodeExecution
}

// panicError converts a recovered panic value into an error. The stack is
// kept for logging and never part of the message.
type panicError struct {
	value any
	stack []byte
}

func (p panicError) Error() string { return fmt.Sprintf("panic: %v", p.value) }
