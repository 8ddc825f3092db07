package agent

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agentdesk/internal/util"
)

// Options configures an Agent.
type Options struct {
	// Description is a short summary of the agent's responsibility.
	Description string
	// Model optionally overrides the default model for this agent.
	Model string
	// Tools lists the tool names this agent may call, in exposure order.
	Tools []string
	// Provider, when set, replaces the static instruction text.
	Provider Provider
}

// Agent is an immutable persona: instructions plus a permitted toolset.
type Agent struct {
	name         string
	description  string
	instructions Instruction
	model        string
	tools        []string
}

// New creates an agent. The instruction text is a text/template rendered
// with the variables of PromptContext.State, so "{{.identity}}" expands to
// the customer's phone number.
func New(name, instructions string, optFns ...func(o *Options)) Agent {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	tools := make([]string, len(opts.Tools))
	copy(tools, opts.Tools)

	instruction := NewInstructionFromText(instructions)
	if opts.Provider != nil {
		instruction = NewInstructionFromProvider(opts.Provider)
	}

	return Agent{
		name:         name,
		description:  opts.Description,
		instructions: instruction,
		model:        opts.Model,
		tools:        tools,
	}
}

// Name returns the unique agent name.
func (a Agent) Name() string { return a.name }

// Description returns the agent description.
func (a Agent) Description() string { return a.description }

// Instructions returns the agent's unrendered instruction.
func (a Agent) Instructions() Instruction { return a.instructions }

// Model returns the model override, or "" for the default.
func (a Agent) Model() string { return a.model }

// Tools returns a copy of the permitted tool names.
func (a Agent) Tools() []string {
	out := make([]string, len(a.tools))
	copy(out, a.tools)
	return out
}

// HasTool reports whether name is in the agent's permitted set.
func (a Agent) HasTool(name string) bool {
	for _, t := range a.tools {
		if t == name {
			return true
		}
	}
	return false
}

// SystemPrompt resolves the instruction and renders it for a conversation
// with identity.
func (a Agent) SystemPrompt(identity string) (string, error) {
	pc := PromptContext{Identity: identity, Agent: a.name}

	text, err := a.instructions.Resolve(pc)
	if err != nil {
		return "", fmt.Errorf("resolve instruction: %w", err)
	}

	prompt, err := util.RenderTemplate(text, pc.State())
	if err != nil {
		return "", fmt.Errorf("render instruction: %w", err)
	}

	return strings.TrimRight(prompt, "\n"), nil
}
