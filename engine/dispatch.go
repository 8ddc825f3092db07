package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/hupe1980/agentdesk/agent"
	"github.com/hupe1980/agentdesk/core"
	"github.com/hupe1980/agentdesk/tool"
)

// HandoffConfirmation is the tool-result text fed back to the model after a handoff.
func HandoffConfirmation(target string) string {
	return fmt.Sprintf("Transferred to %s. Adopt persona immediately.", target)
}

// dispatch executes one tool call for speaker and returns the tool-result
// content plus the handoff target, if any. It never fails: every failure is
// rendered as an error-shaped result.
func (e *Engine) dispatch(ctx context.Context, identity string, speaker agent.Agent, call core.ToolCall) (string, *agent.Agent) {
	start := time.Now()

	cbCtx := &CallbackContext{Identity: identity, Agent: speaker.Name(), Call: &call}

	result, err := e.invoke(ctx, identity, speaker, call, cbCtx)
	if err != nil {
		toolErr := tool.WrapError(call.Name, err)

		e.logger.Warn("tool.call.error",
			"identity", identity,
			"agent", speaker.Name(),
			"tool", call.Name,
			"code", toolErr.Code,
			"duration", time.Since(start),
			"error", toolErr.Message,
		)

		content := encodeResult(toolErr.Payload())
		cbCtx.ToolResult, cbCtx.Err, cbCtx.Duration = content, toolErr, time.Since(start)
		_ = e.callbacks.ExecuteCallbacks(ctx, CallbackAfterTool, cbCtx)

		return content, nil
	}

	var (
		content string
		target  *agent.Agent
	)

	if result.IsHandoff() {
		next, ok := e.catalog.Resolve(result.Target)
		if !ok {
			content = encodeResult(map[string]any{
				"error": fmt.Sprintf("unknown agent %q", result.Target),
				"code":  tool.CodeExecutionError,
			})
		} else {
			content = HandoffConfirmation(next.Name())
			target = &next
		}
	} else {
		content = encodeResult(result.Data)
	}

	e.logger.Debug("tool.call.completed",
		"identity", identity,
		"agent", speaker.Name(),
		"tool", call.Name,
		"kind", result.Kind.String(),
		"duration", time.Since(start),
	)

	cbCtx.ToolResult, cbCtx.Duration = content, time.Since(start)
	_ = e.callbacks.ExecuteCallbacks(ctx, CallbackAfterTool, cbCtx)

	return content, target
}

// invoke resolves, authorizes, decodes and calls the tool with panic recovery.
func (e *Engine) invoke(
	ctx context.Context,
	identity string,
	speaker agent.Agent,
	call core.ToolCall,
	cbCtx *CallbackContext,
) (result core.ToolResult, err error) {
	if !speaker.HasTool(call.Name) {
		return core.ToolResult{}, tool.NewToolError(call.Name,
			fmt.Sprintf("tool %q is not available to agent %q", call.Name, speaker.Name()), tool.CodeToolNotFound)
	}

	t, err := e.registry.Resolve(call.Name)
	if err != nil {
		return core.ToolResult{}, err
	}

	args, err := decodeArguments(call.Arguments)
	if err != nil {
		return core.ToolResult{}, fmt.Errorf("%w: %v", core.ErrInvalidArguments, err)
	}

	if err := e.callbacks.ExecuteCallbacks(ctx, CallbackBeforeTool, cbCtx); err != nil {
		return core.ToolResult{}, err
	}

	toolCtx, cancel := context.WithTimeout(ctx, e.config.ToolTimeout)
	defer cancel()

	tc := core.NewToolContext(toolCtx, identity, speaker.Name(), call.ID, e.logger)

	defer func() {
		if r := recover(); r != nil {
			err = panicError(call.Name, r)
			e.logger.Error("tool.call.panic", "agent", speaker.Name(), "tool", call.Name, "recover", r, "stack", string(debug.Stack()))
		}
	}()

	return t.Call(tc, args)
}

// panicError converts a recovered panic value to a tool error.
func panicError(name string, r any) error {
	return tool.NewToolError(name, fmt.Sprintf("panic: %v", r), tool.CodePanic)
}

// decodeArguments parses serialized JSON arguments; empty input means no arguments.
func decodeArguments(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return map[string]any{}, nil
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("arguments are not a JSON object: %v", err)
	}

	if args == nil {
		args = map[string]any{}
	}

	return args, nil
}

// encodeResult renders tool data as tool-result content. Strings pass
// through; everything else is JSON encoded.
func encodeResult(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}

	return string(b)
}
