package model

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/hupe1980/agentdesk/core"
)

// ErrScriptExhausted is returned when a ScriptedModel has no step left and no fallback.
var ErrScriptExhausted = errors.New("scripted model: script exhausted")

// Step produces the response for one Generate call.
type Step func(ctx context.Context, req Request) (*Response, error)

// ScriptedModel is a deterministic in-memory Model. Steps are consumed in
// order, one per Generate call; once exhausted the fallback (if any) answers.
// Every request is recorded for inspection.
type ScriptedModel struct {
	mu       sync.Mutex
	info     Info
	steps    []Step
	fallback Step
	requests []Request
}

// NewScriptedModel creates an empty script.
func NewScriptedModel(name string) *ScriptedModel {
	return &ScriptedModel{info: Info{Name: name, Provider: "scripted", SupportsTools: true}}
}

// Then appends a custom step.
func (m *ScriptedModel) Then(step Step) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, step)
	return m
}

// ThenText appends a plain text answer.
func (m *ScriptedModel) ThenText(text string) *ScriptedModel {
	return m.Then(func(context.Context, Request) (*Response, error) {
		return &Response{Content: text, FinishReason: "stop"}, nil
	})
}

// ThenToolCalls appends an answer requesting the given tool calls. Calls
// without an ID get a generated one.
func (m *ScriptedModel) ThenToolCalls(calls ...core.ToolCall) *ScriptedModel {
	return m.Then(func(context.Context, Request) (*Response, error) {
		out := make([]core.ToolCall, len(calls))
		for i, c := range calls {
			if c.ID == "" {
				c.ID = NewCallID()
			}
			if c.Arguments == "" {
				c.Arguments = "{}"
			}
			out[i] = c
		}
		return &Response{ToolCalls: out, FinishReason: "tool_calls"}, nil
	})
}

// ThenError appends a failing step.
func (m *ScriptedModel) ThenError(err error) *ScriptedModel {
	return m.Then(func(context.Context, Request) (*Response, error) { return nil, err })
}

// Otherwise sets the step used once the script is exhausted.
func (m *ScriptedModel) Otherwise(step Step) *ScriptedModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = step
	return m
}

// Generate implements Model.
func (m *ScriptedModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.requests = append(m.requests, cloneRequest(req))
	var step Step
	if len(m.steps) > 0 {
		step = m.steps[0]
		m.steps = m.steps[1:]
	} else {
		step = m.fallback
	}
	m.mu.Unlock()

	if step == nil {
		return nil, ErrScriptExhausted
	}

	return step(ctx, req)
}

// Requests returns the recorded requests.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Remaining returns the number of unconsumed steps.
func (m *ScriptedModel) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.steps)
}

// Info implements Model.
func (m *ScriptedModel) Info() Info { return m.info }

// NewCallID returns a provider-style tool call identifier.
func NewCallID() string { return "call_" + uuid.NewString() }

func cloneRequest(req Request) Request {
	req.Messages = core.CloneMessages(req.Messages)
	if req.Tools != nil {
		tools := make([]ToolDefinition, len(req.Tools))
		copy(tools, req.Tools)
		req.Tools = tools
	}
	return req
}
