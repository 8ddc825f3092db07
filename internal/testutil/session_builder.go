package testutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentdesk/core"
	"github.com/hupe1980/agentdesk/model"
)

// SessionBuilder helps construct sessions with fluent chaining for tests.
// Example:
//
//	sess := NewSessionBuilder("+1555").Agent("Order Agent").User("hi").Assistant("hello").Build()
type SessionBuilder struct {
	identity string
	agent    string
	history  []core.Message
}

// NewSessionBuilder creates a new builder for a session with the given identity.
func NewSessionBuilder(identity string) *SessionBuilder {
	return &SessionBuilder{identity: identity}
}

// Agent sets the active agent (chainable).
func (b *SessionBuilder) Agent(name string) *SessionBuilder {
	b.agent = name
	return b
}

// User appends a user message (chainable).
func (b *SessionBuilder) User(text string) *SessionBuilder {
	b.history = append(b.history, core.NewUserMessage(text))
	return b
}

// Assistant appends a plain assistant message (chainable).
func (b *SessionBuilder) Assistant(text string) *SessionBuilder {
	b.history = append(b.history, core.NewAssistantMessage(b.agent, text, nil))
	return b
}

// Messages appends arbitrary messages (chainable).
func (b *SessionBuilder) Messages(msgs ...core.Message) *SessionBuilder {
	b.history = append(b.history, msgs...)
	return b
}

// Build returns a *core.Session with the pre-populated history.
func (b *SessionBuilder) Build() *core.Session {
	s := core.NewSession(b.identity, b.agent)
	s.Append(b.history...)
	return s
}

// Call builds a tool call with JSON-encoded args and a generated ID.
func Call(name string, args map[string]any) core.ToolCall {
	raw := "{}"
	if args != nil {
		b, err := json.Marshal(args)
		if err != nil {
			panic(err)
		}
		raw = string(b)
	}
	return core.ToolCall{ID: model.NewCallID(), Name: name, Arguments: raw}
}

// RequireValidTranscript fails the test if msgs violate call/result pairing.
func RequireValidTranscript(t testing.TB, msgs []core.Message) {
	t.Helper()
	idx := core.ValidateTranscript(msgs)
	require.Equal(t, -1, idx, "transcript invalid at index %d", idx)
}

// Roles returns the role sequence of msgs.
func Roles(msgs []core.Message) []core.Role {
	out := make([]core.Role, len(msgs))
	for i, m := range msgs {
		out[i] = m.Role
	}
	return out
}
