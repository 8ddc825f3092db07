// Package tool implements the function / tool calling subsystem that lets agents
// invoke structured capabilities (lookups, computations, side effects) with schema
// validated arguments, consistent error handling and an explicit registration table.
package tool

import (
	"errors"
	"fmt"

	"github.com/hupe1980/agentdesk/core"
	"github.com/hupe1980/agentdesk/internal/util"
)

// Tool defines the interface for extending agent capabilities with external functions.
//
// A tool either returns an ordinary data result or a handoff token designating the
// next active agent (see core.ToolResult). Business level "not found" outcomes are
// data, not errors: errors are reserved for failures the model should be told about.
//
// Tool implementations should:
//   - Provide clear, descriptive names (snake_case) and descriptions
//   - Define a JSON schema for parameters (properties, required, enum)
//   - Be safe for concurrent use, since one registry serves every conversation
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description provided to the model.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]any

	// Call executes the tool with already-decoded arguments.
	Call(toolCtx *core.ToolContext, args map[string]any) (core.ToolResult, error)
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// Error codes carried by ToolError.
const (
	CodeToolNotFound     = "TOOL_NOT_FOUND"
	CodeInvalidArguments = "INVALID_ARGUMENTS"
	CodeExecutionError   = "EXECUTION_ERROR"
	CodePanic            = "PANIC"
)

// ToolError represents errors that occur during tool resolution or execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details

	cause error
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// Unwrap exposes the matching sentinel for the code and the underlying cause.
func (e *ToolError) Unwrap() []error {
	var errs []error
	switch e.Code {
	case CodeToolNotFound:
		errs = append(errs, core.ErrToolNotFound)
	case CodeInvalidArguments:
		errs = append(errs, core.ErrInvalidArguments)
	}
	if e.cause != nil {
		errs = append(errs, e.cause)
	}
	return errs
}

// Payload returns the error-shaped tool result fed back to the model.
func (e *ToolError) Payload() map[string]any {
	return map[string]any{"error": e.Message, "code": e.Code}
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// WrapError converts any error into a *ToolError. ToolErrors pass through unchanged;
// sentinel errors map onto their codes; everything else is an EXECUTION_ERROR.
func WrapError(tool string, err error) *ToolError {
	if err == nil {
		return nil
	}

	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr
	}

	code := CodeExecutionError
	switch {
	case errors.Is(err, core.ErrToolNotFound):
		code = CodeToolNotFound
	case errors.Is(err, core.ErrInvalidArguments):
		code = CodeInvalidArguments
	}

	return &ToolError{Tool: tool, Message: err.Error(), Code: code, cause: err}
}
