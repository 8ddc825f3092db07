package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, 10, cfg.MaxIterations)
	assert.Equal(t, 60*time.Second, cfg.CompletionTimeout.Std())
	assert.Equal(t, 24*time.Hour, cfg.SessionMaxIdle.Std())
	assert.Equal(t, ":8080", cfg.ListenAddr)
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentdesk.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"provider": "anthropic",
		"model": "claude-test",
		"max_iterations": 4,
		"completion_timeout": "30s",
		"input_format": "form"
	}`), 0o600))

	t.Setenv("AGENTDESK_MAX_ITERATIONS", "6")
	t.Setenv("AGENTDESK_SESSION_MAX_IDLE", "2h")
	t.Setenv("AGENTDESK_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "claude-test", cfg.ModelName)
	assert.Equal(t, 6, cfg.MaxIterations, "env wins over file")
	assert.Equal(t, 30*time.Second, cfg.CompletionTimeout.Std())
	assert.Equal(t, 2*time.Hour, cfg.SessionMaxIdle.Std())
	assert.Equal(t, "form", cfg.InputFormat)
	assert.Equal(t, 15*time.Second, cfg.ToolTimeout.Std(), "untouched default")

	require.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"completion_timeout": "soon"}`), 0o600))

	_, err := Load(path)
	assert.Error(t, err)

	t.Setenv("AGENTDESK_TOOL_TIMEOUT", "forever")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	offline := Default()
	offline.Provider = ProviderOffline
	assert.NoError(t, offline.Validate(), "offline needs no api key")

	missingKey := Default()
	assert.ErrorContains(t, missingKey.Validate(), "api key")

	bad := Default()
	bad.APIKey = "k"
	bad.Provider = "llama"
	bad.InputFormat = "yaml"
	bad.MaxIterations = 0
	bad.RateLimit = -1

	err := bad.Validate()
	require.Error(t, err)
	for _, want := range []string{"provider", "input format", "max_iterations", "rate_limit"} {
		assert.ErrorContains(t, err, want)
	}
}

func TestDuration_Text(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte(" 90s ")))
	assert.Equal(t, 90*time.Second, d.Std())

	out, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(out))
}
