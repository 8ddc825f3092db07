package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticProvider struct {
	text string
	err  error
}

func (p staticProvider) Instruction(PromptContext) (string, error) { return p.text, p.err }

func TestInstruction_Static(t *testing.T) {
	inst := NewInstructionFromText("static instruction")
	assert.True(t, inst.IsStatic())

	text, err := inst.Resolve(PromptContext{})
	require.NoError(t, err)
	assert.Equal(t, "static instruction", text)
}

func TestInstruction_Provider(t *testing.T) {
	inst := NewInstructionFromProvider(staticProvider{text: "dynamic"})
	assert.False(t, inst.IsStatic())

	text, err := inst.Resolve(PromptContext{})
	require.NoError(t, err)
	assert.Equal(t, "dynamic", text)

	_, err = NewInstructionFromProvider(staticProvider{err: assert.AnError}).Resolve(PromptContext{})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestInstruction_Func(t *testing.T) {
	inst := NewInstructionFromFunc(func(pc PromptContext) (string, error) {
		return pc.Agent + " serves " + pc.Identity, nil
	})

	text, err := inst.Resolve(PromptContext{Identity: "+1555", Agent: "Bot"})
	require.NoError(t, err)
	assert.Equal(t, "Bot serves +1555", text)
}

func TestPromptContext_State(t *testing.T) {
	state := PromptContext{Identity: "+1555", Agent: "Bot"}.State()
	assert.Equal(t, map[string]any{"identity": "+1555", "agent": "Bot"}, state)
}
