package anthropic

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentdesk/core"
	"github.com/hupe1980/agentdesk/model"
)

func TestBuildMessages_FoldsToolResults(t *testing.T) {
	msgs := buildMessages([]core.Message{
		core.NewUserMessage("hi"),
		core.NewAssistantMessage("BakeryBot", "", []core.ToolCall{
			{ID: "c1", Name: "get_faq", Arguments: `{"topic":"hours"}`},
			{ID: "c2", Name: "get_cake_inventory", Arguments: "{}"},
		}),
		core.NewToolMessage("BakeryBot", "c1", "get_faq", "9-5"),
		core.NewToolMessage("BakeryBot", "c2", "get_cake_inventory", "[]"),
		core.NewAssistantMessage("BakeryBot", "done", nil),
	})

	require.Len(t, msgs, 4)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[1].Role)
	assert.Len(t, msgs[1].Content, 2)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[2].Role)
	assert.Len(t, msgs[2].Content, 2)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, msgs[3].Role)
}

func TestBuildTools(t *testing.T) {
	tools := buildTools([]model.ToolDefinition{{
		Type: "function",
		Function: model.FunctionDefinition{
			Name:        "get_faq",
			Description: "FAQ",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"topic": map[string]any{"type": "string"}},
				"required":   []string{"topic"},
			},
		},
	}})

	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "get_faq", tools[0].OfTool.Name)
	assert.Equal(t, []string{"topic"}, tools[0].OfTool.InputSchema.Required)
}
