package agentdesk

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentdesk/bakery"
	"github.com/hupe1980/agentdesk/config"
	"github.com/hupe1980/agentdesk/core"
	"github.com/hupe1980/agentdesk/engine"
	"github.com/hupe1980/agentdesk/logging"
	"github.com/hupe1980/agentdesk/model"
)

const testIdentity = "+15550123"

func newTestDesk(t *testing.T, optFns ...func(o *Options)) (*Desk, *bytes.Buffer) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Provider = config.ProviderOffline
	cfg.DatabasePath = filepath.Join(t.TempDir(), "desk.db")
	cfg.AdminPassword = "s3cret"

	var buf bytes.Buffer

	fns := append([]func(o *Options){func(o *Options) {
		o.Logger = logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelInfo, Format: "json", Output: &buf})
		o.Rand = rand.New(rand.NewSource(1))
	}}, optFns...)

	desk, err := New(context.Background(), cfg, fns...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = desk.Close() })

	return desk, &buf
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Provider = "carrier-pigeon"
	cfg.DatabasePath = filepath.Join(t.TempDir(), "desk.db")

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestNew_MissingFAQFile(t *testing.T) {
	cfg := config.Default()
	cfg.Provider = config.ProviderOffline
	cfg.DatabasePath = filepath.Join(t.TempDir(), "desk.db")
	cfg.FAQPath = filepath.Join(t.TempDir(), "missing.txt")

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "faq")
}

func TestDesk_OfflineConversation(t *testing.T) {
	desk, logs := newTestDesk(t)
	ctx := context.Background()

	reply, err := desk.HandleMessage(ctx, testIdentity, "hello")
	require.NoError(t, err)
	assert.Equal(t, offlineGreeting, reply)

	reply, err = desk.HandleMessage(ctx, testIdentity, "What cakes are on the menu?")
	require.NoError(t, err)
	assert.Contains(t, reply, "Chocolate Therapy")

	reply, err = desk.HandleMessage(ctx, testIdentity, "I need a custom birthday cake")
	require.NoError(t, err)
	assert.Equal(t, "Hi, this is Order Agent. How can I help you?", reply)

	sess, ok := desk.Sessions().Snapshot(testIdentity)
	require.True(t, ok)
	assert.Equal(t, bakery.AgentOrder, sess.ActiveAgent)

	records, err := desk.Archive().History(ctx, testIdentity, 10)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "I need a custom birthday cake", records[0].UserMessage)
	assert.Equal(t, bakery.AgentOrder, records[0].Agent)

	out := logs.String()
	assert.Contains(t, out, `"msg":"turn.completed"`)
	assert.Contains(t, out, `"msg":"tool.call.completed"`)
	assert.Contains(t, out, `"msg":"llm.call.completed"`)

	reply, err = desk.HandleMessage(ctx, testIdentity, "bye")
	require.NoError(t, err)
	assert.Equal(t, engine.Farewell, reply)

	sess, ok = desk.Sessions().Snapshot(testIdentity)
	require.True(t, ok)
	assert.Equal(t, bakery.AgentBakery, sess.ActiveAgent)
	assert.Empty(t, sess.History)
}

func TestDesk_ModelOverrideAndFailureAudit(t *testing.T) {
	scripted := model.NewScriptedModel("scripted").ThenError(assert.AnError)

	desk, logs := newTestDesk(t, func(o *Options) { o.Model = scripted })

	_, err := desk.HandleMessage(context.Background(), testIdentity, "hello")
	require.Error(t, err)

	assert.Contains(t, logs.String(), `"msg":"turn.failed"`)
	assert.Len(t, scripted.Requests(), 1)
	assert.Equal(t, "scripted", scripted.Requests()[0].Model)
}

func TestDesk_Webhook(t *testing.T) {
	desk, _ := newTestDesk(t)

	body, err := json.Marshal(map[string]string{"message": "are you open on sunday?", "identity": testIdentity})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	desk.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp["response"], "Here is what I found:"))
}

func TestDesk_CustomFAQs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faq.txt")
	require.NoError(t, os.WriteFile(path, []byte("Q: Do you sell cupcakes?\nA: Only on Fridays.\n"), 0o600))

	cfg := config.Default()
	cfg.Provider = config.ProviderOffline
	cfg.DatabasePath = filepath.Join(t.TempDir(), "desk.db")
	cfg.FAQPath = path

	desk, err := New(context.Background(), cfg, func(o *Options) {
		o.Logger = logging.NewLogger(&logging.LoggerConfig{Output: &bytes.Buffer{}})
	})
	require.NoError(t, err)
	defer desk.Close()

	reply, err := desk.HandleMessage(context.Background(), testIdentity, "faq please")
	require.NoError(t, err)
	assert.Contains(t, reply, "Only on Fridays.")
}

func TestDesk_RunStopsOnCancel(t *testing.T) {
	desk, _ := newTestDesk(t)
	desk.cfg.ListenAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- desk.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewModel_Providers(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	cfg.APIKey = "test-key"

	for _, provider := range []string{config.ProviderOpenAI, config.ProviderAnthropic, config.ProviderGemini} {
		cfg.Provider = provider
		m, err := NewModel(ctx, cfg)
		require.NoError(t, err, provider)
		assert.Equal(t, provider, m.Info().Provider)
	}

	cfg.Provider = config.ProviderOffline
	m, err := NewModel(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, OfflineModelName, m.Info().Name)

	cfg.Provider = "nope"
	_, err = NewModel(ctx, cfg)
	require.Error(t, err)
}

func TestOfflineModel_RespectsAgentTools(t *testing.T) {
	m := NewOfflineModel()
	ctx := context.Background()

	resp, err := m.Generate(ctx, model.Request{})
	require.NoError(t, err)
	assert.Equal(t, offlineGreeting, resp.Content)

	refund := []core.Message{core.NewUserMessage("I want a refund")}

	resp, err = m.Generate(ctx, model.Request{Messages: refund})
	require.NoError(t, err)
	assert.False(t, resp.HasToolCalls(), "transfer tool not on offer")

	resp, err = m.Generate(ctx, model.Request{
		Messages: refund,
		Tools: []model.ToolDefinition{{
			Type:     "function",
			Function: model.FunctionDefinition{Name: bakery.ToolTransferToRefund},
		}},
	})
	require.NoError(t, err)
	require.True(t, resp.HasToolCalls())
	assert.Equal(t, bakery.ToolTransferToRefund, resp.ToolCalls[0].Name)

	resp, err = m.Generate(ctx, model.Request{Messages: []core.Message{
		core.NewToolMessage(bakery.AgentBakery, "call_1", bakery.ToolTransferToRefund, engine.HandoffConfirmation(bakery.AgentRefund)),
	}})
	require.NoError(t, err)
	assert.Equal(t, "Hi, this is Refund Agent. How can I help you?", resp.Content)
}
