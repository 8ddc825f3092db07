package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentdesk/core"
	"github.com/hupe1980/agentdesk/tool"
)

func newRegistry(t *testing.T, tools ...tool.Tool) *tool.Registry {
	t.Helper()
	reg, err := tool.NewRegistry(tools...)
	require.NoError(t, err)
	return reg
}

func TestAgent_Immutable(t *testing.T) {
	tools := []string{"a", "b"}
	a := New("Bot", "Be nice.", func(o *Options) { o.Tools = tools })

	tools[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, a.Tools())

	got := a.Tools()
	got[1] = "mutated"
	assert.Equal(t, []string{"a", "b"}, a.Tools())

	assert.True(t, a.HasTool("a"))
	assert.False(t, a.HasTool("c"))
}

func TestAgent_SystemPrompt(t *testing.T) {
	t.Run("renders identity", func(t *testing.T) {
		a := New("Bot", "You are {{.agent}}. Customer phone number: {{.identity}}\n")

		prompt, err := a.SystemPrompt("+1555")
		require.NoError(t, err)
		assert.Equal(t, "You are Bot. Customer phone number: +1555", prompt)
	})

	t.Run("static text", func(t *testing.T) {
		a := New("Bot", "Be nice.\n")
		assert.True(t, a.Instructions().IsStatic())

		prompt, err := a.SystemPrompt("+1555")
		require.NoError(t, err)
		assert.Equal(t, "Be nice.", prompt)
	})

	t.Run("provider", func(t *testing.T) {
		a := New("Bot", "ignored", func(o *Options) {
			o.Provider = Func(func(pc PromptContext) (string, error) {
				return "Serving {{.identity | default \"guest\"}} as " + pc.Agent, nil
			})
		})
		assert.False(t, a.Instructions().IsStatic())

		prompt, err := a.SystemPrompt("")
		require.NoError(t, err)
		assert.Equal(t, "Serving guest as Bot", prompt)
	})

	t.Run("provider error", func(t *testing.T) {
		a := New("Bot", "", func(o *Options) {
			o.Provider = Func(func(PromptContext) (string, error) { return "", assert.AnError })
		})

		_, err := a.SystemPrompt("+1555")
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("bad template", func(t *testing.T) {
		_, err := New("Bot", "Hi {{.identity").SystemPrompt("+1555")
		assert.Error(t, err)
	})
}

func TestNewCatalog(t *testing.T) {
	_, err := NewCatalog("Missing", New("A", ""))
	assert.ErrorIs(t, err, ErrAgentNotFound)

	_, err = NewCatalog("A", New("A", ""), New("A", ""))
	assert.Error(t, err)

	_, err = NewCatalog("A", New("", ""))
	assert.Error(t, err)

	c, err := NewCatalog("A", New("A", ""), New("B", ""))
	require.NoError(t, err)
	assert.Equal(t, "A", c.Default().Name())
	assert.Equal(t, []string{"A", "B"}, c.Names())

	b, ok := c.Resolve("B")
	assert.True(t, ok)
	assert.Equal(t, "B", b.Name())

	_, ok = c.Resolve("C")
	assert.False(t, ok)

	assert.Panics(t, func() { MustNewCatalog("Z") })
}

func TestCatalog_ValidateAndEdges(t *testing.T) {
	faq := tool.NewFunctionTool("get_faq", "FAQ", nil, func(*core.ToolContext, map[string]any) (any, error) { return "ok", nil })
	toB := tool.NewHandoffTool("transfer_to_b", "", "B")
	toA := tool.NewHandoffTool("transfer_to_a", "", "A")
	toGhost := tool.NewHandoffTool("transfer_to_ghost", "", "Ghost")

	reg := newRegistry(t, faq, toB, toA, toGhost)

	c := MustNewCatalog("A",
		New("A", "", func(o *Options) { o.Tools = []string{"get_faq", "transfer_to_b"} }),
		New("B", "", func(o *Options) { o.Tools = []string{"transfer_to_a"} }),
	)
	require.NoError(t, c.Validate(reg))
	assert.Equal(t, map[string][]string{"A": {"B"}, "B": {"A"}}, c.Edges(reg))

	missingTool := MustNewCatalog("A", New("A", "", func(o *Options) { o.Tools = []string{"nope"} }))
	assert.ErrorIs(t, missingTool.Validate(reg), core.ErrToolNotFound)

	badTarget := MustNewCatalog("A", New("A", "", func(o *Options) { o.Tools = []string{"transfer_to_ghost"} }))
	assert.ErrorIs(t, badTarget.Validate(reg), ErrAgentNotFound)
}
