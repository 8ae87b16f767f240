package tools

import (
	"errors"
	"fmt"
)

// Sentinel errors for registry operations.
var (
	// ErrUnknownTool is returned when no tool has the requested name.
	ErrUnknownTool = errors.New("tools: unknown tool")

	// ErrInvalidArguments is returned when arguments fail schema validation.
	ErrInvalidArguments = errors.New("tools: invalid arguments")

	// ErrExecutionFailed marks a failure inside a tool's executor.
	ErrExecutionFailed = errors.New("tools: execution failed")

	// ErrDuplicateTool is returned when a name is registered twice.
	ErrDuplicateTool = errors.New("tools: duplicate tool")

	// ErrEmptyName is returned when registering a tool without a name.
	ErrEmptyName = errors.New("tools: tool name required")
)

// ToolError carries the tool name and detail for a failed call.
type ToolError struct {
	Tool   string
	Err    error
	Detail string
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%v [%s]: %s", e.Err, e.Tool, e.Detail)
	}
	return fmt.Sprintf("%v [%s]", e.Err, e.Tool)
}

// Unwrap returns the sentinel error.
func (e *ToolError) Unwrap() error {
	return e.Err
}

// FailurePrefix starts every failure confirmation.
const FailurePrefix = "Error:"

// FailureText converts a tool error into the tool-result content sent back
// to the reasoning provider.
func FailureText(err error) string {
	var te *ToolError
	if !errors.As(err, &te) {
		return fmt.Sprintf("%s no se pudo completar la acción (%v).", FailurePrefix, err)
	}
	switch {
	case errors.Is(err, ErrUnknownTool):
		return fmt.Sprintf("%s la herramienta %q no existe.", FailurePrefix, te.Tool)
	case errors.Is(err, ErrInvalidArguments):
		return fmt.Sprintf("%s argumentos inválidos para %s: %s.", FailurePrefix, te.Tool, te.Detail)
	default:
		return fmt.Sprintf("%s %s falló y no se completó la acción.", FailurePrefix, te.Tool)
	}
}
