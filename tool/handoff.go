package tool

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentdesk/core"
)

// HandoffTool transfers control of the conversation to a fixed target agent.
// It takes no arguments and always returns core.Handoff(target).
type HandoffTool struct {
	name        string
	description string
	target      string
}

// NewHandoffTool constructs a handoff tool for target.
func NewHandoffTool(name, description, target string) *HandoffTool {
	if description == "" {
		description = fmt.Sprintf("Transfer the conversation to %s.", target)
	}
	return &HandoffTool{name: name, description: description, target: target}
}

// HandoffToolName derives the conventional tool name for a target agent,
// e.g. "Order Agent" -> "transfer_to_order_agent".
func HandoffToolName(target string) string {
	return "transfer_to_" + strings.ReplaceAll(strings.ToLower(strings.TrimSpace(target)), " ", "_")
}

// Name returns the tool name.
func (t *HandoffTool) Name() string { return t.name }

// Description returns the tool description.
func (t *HandoffTool) Description() string { return t.description }

// Target returns the destination agent name.
func (t *HandoffTool) Target() string { return t.target }

// Parameters returns an empty object schema.
func (t *HandoffTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

// Call returns the handoff token.
func (t *HandoffTool) Call(tc *core.ToolContext, _ map[string]any) (core.ToolResult, error) {
	tc.Logger().Debug("tool.handoff", "tool", t.name, "from", tc.AgentName(), "to", t.target)
	return core.Handoff(t.target), nil
}
