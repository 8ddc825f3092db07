package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentdesk/bakery"
	"github.com/hupe1980/agentdesk/engine"
)

func TestNewRootCommand(t *testing.T) {
	cmd := newRootCommand()

	assert.Equal(t, "agentdesk", cmd.Use)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("env-file"))

	names := []string{}
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "chat", "agents", "version"}, names)
}

func TestVersionCommand(t *testing.T) {
	cmd := newVersionCommand()

	assert.True(t, cmd.HasAlias("v"))
	assert.False(t, cmd.HasFlags())
	assert.NotNil(t, cmd.Run)

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.Run(cmd, nil)

	assert.Contains(t, out.String(), "agentdesk dev")
}

func TestChatCommandFlags(t *testing.T) {
	cmd := newChatCommand(nil)

	offline := cmd.Flags().Lookup("offline")
	require.NotNil(t, offline)
	assert.Equal(t, "false", offline.DefValue)

	identity := cmd.Flags().Lookup("identity")
	require.NotNil(t, identity)
	assert.Equal(t, "cli", identity.DefValue)
}

func TestAgentsCommand(t *testing.T) {
	root := newRootCommand()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"agents", "--config", filepath.Join(t.TempDir(), "none.json"), "--env-file", filepath.Join(t.TempDir(), "none.env")})

	require.NoError(t, root.Execute())

	text := out.String()
	assert.Contains(t, text, bakery.AgentBakery+" (default)")
	assert.Contains(t, text, bakery.AgentAdmin)
	assert.Contains(t, text, "handoffs:  "+bakery.AgentAdmin+", "+bakery.AgentOrder+", "+bakery.AgentRefund)
}

func TestLoadEnvFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("AGENTDESK_TEST_DOTENV=loaded\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("AGENTDESK_TEST_DOTENV") })

	require.NoError(t, loadEnvFiles(filepath.Join(t.TempDir(), "missing.env"), path))
	assert.Equal(t, "loaded", os.Getenv("AGENTDESK_TEST_DOTENV"))
}

type scriptedReader struct {
	lines []string
	err   error
}

func (r *scriptedReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		return "", r.err
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

type echoHandler struct {
	calls []string
}

func (h *echoHandler) HandleMessage(_ context.Context, _, text string) (string, error) {
	h.calls = append(h.calls, text)
	switch {
	case engine.IsExitKeyword(text):
		return engine.Farewell, nil
	case text == "fail":
		return "", errors.New("boom")
	default:
		return "echo: " + text, nil
	}
}

func TestChatLoop(t *testing.T) {
	t.Run("exit keyword ends the loop", func(t *testing.T) {
		r := &scriptedReader{lines: []string{"hi", "  ", "fail", "bye", "never"}, err: io.EOF}
		h := &echoHandler{}
		var out bytes.Buffer

		require.NoError(t, chatLoop(context.Background(), r, &out, h, "cli"))

		assert.Equal(t, []string{"hi", "fail", "bye"}, h.calls)
		assert.Contains(t, out.String(), "desk> echo: hi")
		assert.Contains(t, out.String(), "error: boom")
		assert.True(t, strings.HasSuffix(strings.TrimSpace(out.String()), engine.Farewell))
	})

	t.Run("interrupt ends the loop", func(t *testing.T) {
		r := &scriptedReader{err: readline.ErrInterrupt}
		var out bytes.Buffer

		require.NoError(t, chatLoop(context.Background(), r, &out, &echoHandler{}, "cli"))
		assert.Contains(t, out.String(), "Goodbye!")
	})

	t.Run("read errors are returned", func(t *testing.T) {
		r := &scriptedReader{err: errors.New("tty gone")}

		err := chatLoop(context.Background(), r, io.Discard, &echoHandler{}, "cli")
		require.EqualError(t, err, "tty gone")
	})
}
