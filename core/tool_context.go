package core

import (
	"context"

	"github.com/hupe1980/agentdesk/logging"
)

// ToolContext provides the scoped surface handed to tool implementations: the
// call's context (carrying the per-tool timeout), the conversation identity and
// the agent that issued the call.
type ToolContext struct {
	ctx            context.Context
	identity       string
	agentName      string
	functionCallID string

	*loggerAdapter
}

// NewToolContext constructs a tool context for a single call.
func NewToolContext(ctx context.Context, identity, agentName, functionCallID string, logger logging.Logger) *ToolContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ToolContext{
		ctx:            ctx,
		identity:       identity,
		agentName:      agentName,
		functionCallID: functionCallID,
		loggerAdapter:  newLoggerAdapter(logger),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.ctx }

// Identity returns the external identity (e.g. phone number) of the conversation.
func (tc *ToolContext) Identity() string { return tc.identity }

// AgentName returns the name of the agent that requested the call.
func (tc *ToolContext) AgentName() string { return tc.agentName }

// FunctionCallID returns the provider issued call identifier.
func (tc *ToolContext) FunctionCallID() string { return tc.functionCallID }
