package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentdesk/core"
)

// CallbackType defines the lifecycle points where callbacks run.
type CallbackType string

const (
	// CallbackBeforeModel runs before each completion call. An error aborts the turn.
	CallbackBeforeModel CallbackType = "before_model"

	// CallbackAfterModel runs after each successful completion call.
	CallbackAfterModel CallbackType = "after_model"

	// CallbackBeforeTool runs before a tool executes. An error vetoes the call
	// and is reported to the model as an error-shaped tool result.
	CallbackBeforeTool CallbackType = "before_tool"

	// CallbackAfterTool runs after a tool executes (successfully or not).
	CallbackAfterTool CallbackType = "after_tool"

	// CallbackOnHandoff runs when a handoff swaps the active agent.
	CallbackOnHandoff CallbackType = "on_handoff"

	// CallbackOnTurnCommitted runs after a turn has been committed and the
	// session lock released. Errors are logged only.
	CallbackOnTurnCommitted CallbackType = "on_turn_committed"

	// CallbackOnError runs when a turn fails.
	CallbackOnError CallbackType = "on_error"
)

// CallbackContext carries the information available at a callback point.
// Fields not relevant to a callback type are zero.
type CallbackContext struct {
	CallbackType CallbackType
	Identity     string
	Agent        string

	// Tool callbacks
	Call       *core.ToolCall
	ToolResult string

	// Handoff callbacks
	FromAgent string
	ToAgent   string

	// Turn callbacks
	Turn *TurnRecord
	Err  error

	// Duration is the latency of the completion or tool call that
	// triggered an after_model or after_tool callback.
	Duration time.Duration

	// Metadata provides extensible storage for custom callback data.
	Metadata map[string]any
}

// Callback defines the interface for lifecycle hooks.
type Callback interface {
	// Type returns the callback type this implementation handles.
	Type() CallbackType

	// Execute performs the callback logic.
	Execute(ctx context.Context, callbackCtx *CallbackContext) error
}

// FunctionCallback wraps a function as a callback implementation.
//
// Example:
//
//	archiveCallback := NewFunctionCallback(
//	    CallbackOnTurnCommitted,
//	    func(ctx context.Context, cc *CallbackContext) error {
//	        return archive.Record(ctx, cc.Turn)
//	    },
//	)
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, callbackCtx *CallbackContext) error
}

// NewFunctionCallback creates a new function-based callback.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, callbackCtx *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{
		callbackType: callbackType,
		fn:           fn,
	}
}

// Type returns the callback type this function handles.
func (c *FunctionCallback) Type() CallbackType { return c.callbackType }

// Execute calls the wrapped function with the provided context.
func (c *FunctionCallback) Execute(ctx context.Context, callbackCtx *CallbackContext) error {
	return c.fn(ctx, callbackCtx)
}

// CallbackManager routes callbacks by type. Callbacks run sequentially in
// registration order; the first error stops execution.
type CallbackManager struct {
	mu        sync.RWMutex
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager creates an empty callback manager.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{
		callbacks: make(map[CallbackType][]Callback),
	}
}

// RegisterCallback adds a callback for its type.
func (cm *CallbackManager) RegisterCallback(callback Callback) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	callbackType := callback.Type()
	cm.callbacks[callbackType] = append(cm.callbacks[callbackType], callback)
}

// ExecuteCallbacks executes all callbacks registered for callbackType.
func (cm *CallbackManager) ExecuteCallbacks(
	ctx context.Context,
	callbackType CallbackType,
	callbackCtx *CallbackContext,
) error {
	cm.mu.RLock()
	callbacks := cm.callbacks[callbackType]
	cm.mu.RUnlock()

	callbackCtx.CallbackType = callbackType

	for _, callback := range callbacks {
		if err := callback.Execute(ctx, callbackCtx); err != nil {
			return fmt.Errorf("%s callback: %w", callbackType, err)
		}
	}

	return nil
}

// LoggingCallback forwards formatted lifecycle events to a logging function.
type LoggingCallback struct {
	callbackType CallbackType
	logger       func(message string)
}

// NewLoggingCallback creates a new logging callback.
func NewLoggingCallback(callbackType CallbackType, logger func(message string)) *LoggingCallback {
	return &LoggingCallback{
		callbackType: callbackType,
		logger:       logger,
	}
}

// Type returns the callback type this logger handles.
func (c *LoggingCallback) Type() CallbackType { return c.callbackType }

// Execute logs the event with identity and agent.
func (c *LoggingCallback) Execute(_ context.Context, callbackCtx *CallbackContext) error {
	if c.logger == nil {
		return nil
	}

	message := fmt.Sprintf("[%s] identity=%s agent=%s", c.callbackType, callbackCtx.Identity, callbackCtx.Agent)
	if callbackCtx.Call != nil {
		message += " tool=" + callbackCtx.Call.Name
	}
	if callbackCtx.ToAgent != "" {
		message += fmt.Sprintf(" handoff=%s->%s", callbackCtx.FromAgent, callbackCtx.ToAgent)
	}
	if callbackCtx.Err != nil {
		message += " error=" + callbackCtx.Err.Error()
	}

	c.logger(message)

	return nil
}
