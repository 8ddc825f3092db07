package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentdesk/core"
)

func TestScriptedModel_Sequence(t *testing.T) {
	m := NewScriptedModel("test").
		ThenToolCalls(core.ToolCall{Name: "get_faq"}).
		ThenText("done")

	req := Request{System: "sys", Messages: []core.Message{core.NewUserMessage("hi")}}

	resp, err := m.Generate(context.Background(), req)
	require.NoError(t, err)
	require.True(t, resp.HasToolCalls())
	assert.Equal(t, "get_faq", resp.ToolCalls[0].Name)
	assert.NotEmpty(t, resp.ToolCalls[0].ID)
	assert.Equal(t, "{}", resp.ToolCalls[0].Arguments)

	resp, err = m.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.HasToolCalls())
	assert.Equal(t, "done", resp.Content)

	_, err = m.Generate(context.Background(), req)
	assert.ErrorIs(t, err, ErrScriptExhausted)

	assert.Len(t, m.Requests(), 3)
	assert.Equal(t, 0, m.Remaining())
}

func TestScriptedModel_ErrorAndFallback(t *testing.T) {
	boom := errors.New("boom")
	m := NewScriptedModel("test").ThenError(boom).
		Otherwise(func(_ context.Context, req Request) (*Response, error) {
			return &Response{Content: "echo: " + req.Messages[len(req.Messages)-1].Content}, nil
		})

	req := Request{Messages: []core.Message{core.NewUserMessage("x")}}

	_, err := m.Generate(context.Background(), req)
	assert.ErrorIs(t, err, boom)

	resp, err := m.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "echo: x", resp.Content)
}

func TestScriptedModel_RecordsCopies(t *testing.T) {
	m := NewScriptedModel("test").ThenText("ok")
	msgs := []core.Message{core.NewUserMessage("original")}

	_, err := m.Generate(context.Background(), Request{Messages: msgs})
	require.NoError(t, err)

	msgs[0].Content = "mutated"
	assert.Equal(t, "original", m.Requests()[0].Messages[0].Content)
}

func TestScriptedModel_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScriptedModel("test").ThenText("never").Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}
