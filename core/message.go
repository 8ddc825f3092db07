package core

import (
	"time"
)

// Role identifies the author class of a Message.
type Role string

const (
	// RoleSystem carries agent instructions. System messages are synthesized per
	// completion request and never stored in a session history.
	RoleSystem Role = "system"
	// RoleUser is an end-user utterance.
	RoleUser Role = "user"
	// RoleAssistant is model output, optionally requesting tool calls.
	RoleAssistant Role = "assistant"
	// RoleTool is the result of exactly one tool call.
	RoleTool Role = "tool"
)

// ToolCall describes a tool invocation requested by the model.
type ToolCall struct {
	ID        string `json:"id"`                  // Provider issued identifier echoed back in the tool result
	Name      string `json:"name"`                // Tool name
	Arguments string `json:"arguments,omitempty"` // Serialized JSON arguments, preserved verbatim
}

// Message is one entry of a conversation transcript. The populated fields depend
// on Role:
//   - user / system: Content
//   - assistant: Content (may be empty) and ToolCalls
//   - tool: Content, ToolCallID and Name
//
// Agent records which agent authored an assistant or tool message. It is
// informational and never sent to the model.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
	Agent      string     `json:"agent,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// NewSystemMessage creates a system message carrying instruction text.
func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text, Timestamp: time.Now().UTC()}
}

// NewUserMessage creates a user-authored text message.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text, Timestamp: time.Now().UTC()}
}

// NewAssistantMessage creates an assistant message. Content may be empty when the
// model only requested tool calls.
func NewAssistantMessage(agent, content string, calls []ToolCall) Message {
	m := Message{Role: RoleAssistant, Content: content, Agent: agent, Timestamp: time.Now().UTC()}
	if len(calls) > 0 {
		m.ToolCalls = append([]ToolCall(nil), calls...)
	}
	return m
}

// NewToolMessage records the outcome of the tool call identified by callID.
func NewToolMessage(agent, callID, toolName, content string) Message {
	return Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: callID,
		Name:       toolName,
		Agent:      agent,
		Timestamp:  time.Now().UTC(),
	}
}

// HasToolCalls reports whether the message requests any tool calls.
func (m Message) HasToolCalls() bool { return m.Role == RoleAssistant && len(m.ToolCalls) > 0 }

// Clone returns a copy that shares no slices with m.
func (m Message) Clone() Message {
	if m.ToolCalls != nil {
		m.ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
	}
	return m
}

// CloneMessages deep copies a transcript.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}

// ValidateTranscript checks the pairing rule: every assistant message that
// requested tool calls is immediately followed by exactly one tool message per
// call, in call order. It returns the index of the first offending message or -1.
func ValidateTranscript(msgs []Message) int {
	for i := 0; i < len(msgs); i++ {
		m := msgs[i]
		if m.Role == RoleTool {
			return i // orphan tool result
		}
		if !m.HasToolCalls() {
			continue
		}
		for j, call := range m.ToolCalls {
			k := i + 1 + j
			if k >= len(msgs) || msgs[k].Role != RoleTool || msgs[k].ToolCallID != call.ID {
				return k
			}
		}
		i += len(m.ToolCalls)
	}
	return -1
}
