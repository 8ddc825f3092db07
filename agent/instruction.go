package agent

// PromptContext carries the per-turn values an instruction may depend on.
type PromptContext struct {
	// Identity is the customer's phone number.
	Identity string
	// Agent is the name of the agent the prompt is rendered for.
	Agent string
}

// State returns the template variables available to instruction text.
func (pc PromptContext) State() map[string]any {
	return map[string]any{
		"identity": pc.Identity,
		"agent":    pc.Agent,
	}
}

// Provider supplies dynamic instruction text at runtime.
type Provider interface {
	Instruction(PromptContext) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(PromptContext) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(pc PromptContext) (string, error) { return f(pc) }

// Instruction represents either a static instruction string or a dynamic provider.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(PromptContext) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(pc PromptContext) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(pc)
	}
	return i.text, nil
}
