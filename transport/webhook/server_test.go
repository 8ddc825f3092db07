package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentdesk/core"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubHandler struct {
	mu    sync.Mutex
	calls []string
	reply string
	err   error
}

func (h *stubHandler) HandleMessage(_ context.Context, identity, text string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, identity+":"+text)
	if h.err != nil {
		return "", h.err
	}
	return h.reply, nil
}

func postJSON(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func postForm(t *testing.T, srv *Server, path string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestChat_JSON(t *testing.T) {
	h := &stubHandler{reply: `Hi "friend" <3`}
	srv := New(h)

	w := postJSON(t, srv, `{"message":"hello","identity":"+1555"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, `Hi "friend" <3`, body["response"])
	assert.Equal(t, []string{"+1555:hello"}, h.calls)
}

func TestChat_FormReturnsTwiML(t *testing.T) {
	h := &stubHandler{reply: "Cakes & cookies"}
	srv := New(h, func(o *Options) { o.InputFormat = "form" })

	w := postForm(t, srv, "/webhook", url.Values{"From": {"+1555"}, "Body": {"menu?"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "xml")
	assert.Contains(t, w.Body.String(), "<Message>Cakes &amp; cookies</Message>")
	assert.Equal(t, []string{"+1555:menu?"}, h.calls)
}

func TestChat_BadRequests(t *testing.T) {
	h := &stubHandler{reply: "x"}
	srv := New(h)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"message":`},
		{"empty body", ``},
		{"missing identity", `{"message":"hi"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, srv, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}

	assert.Empty(t, h.calls)
}

func TestChat_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		retryAfter bool
	}{
		{"empty", core.ErrEmptyMessage, http.StatusBadRequest, false},
		{"upstream", fmt.Errorf("%w: 502 bad gateway", core.ErrUpstreamUnavailable), http.StatusServiceUnavailable, true},
		{"loop", core.ErrTurnLoopExceeded, http.StatusInternalServerError, false},
		{"other", errors.New("boom"), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(&stubHandler{err: tt.err}, func(o *Options) { o.RetryAfter = 30 * time.Second })

			w := postJSON(t, srv, `{"message":"hi","identity":"+1"}`)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.retryAfter {
				assert.Equal(t, "30", w.Header().Get("Retry-After"))
			} else {
				assert.Empty(t, w.Header().Get("Retry-After"))
			}
			assert.NotContains(t, w.Body.String(), "502", "internal details are not leaked")
		})
	}
}

func TestChat_FormErrorKeepsTwiML(t *testing.T) {
	srv := New(&stubHandler{err: core.ErrUpstreamUnavailable})

	w := postForm(t, srv, "/chat", url.Values{"From": {"+1"}, "Body": {"hi"}})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "<Response><Message>")
}

func TestChat_RateLimited(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(60, 2, func() time.Time { return now })

	h := &stubHandler{reply: "ok"}
	srv := New(h, func(o *Options) { o.Limiter = limiter })

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, postJSON(t, srv, `{"message":"hi","identity":"+1"}`).Code)
	}

	w := postJSON(t, srv, `{"message":"hi","identity":"+1"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	// Other identities have their own bucket.
	assert.Equal(t, http.StatusOK, postJSON(t, srv, `{"message":"hi","identity":"+2"}`).Code)

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, postJSON(t, srv, `{"message":"hi","identity":"+1"}`).Code)

	assert.Len(t, h.calls, 4)
}

func TestRateLimiter_Prune(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewRateLimiter(60, 3, func() time.Time { return now })

	ok, _ := l.Allow("a")
	require.True(t, ok)
	assert.Equal(t, 1, l.Len())

	l.Prune(now)
	assert.Equal(t, 1, l.Len(), "bucket still draining")

	l.Prune(now.Add(time.Minute))
	assert.Equal(t, 0, l.Len())
}

func TestRateLimiter_Disabled(t *testing.T) {
	l := NewRateLimiter(0, 0, nil)
	for i := 0; i < 100; i++ {
		ok, _ := l.Allow("a")
		require.True(t, ok)
	}
}

func TestHealthAndRoot(t *testing.T) {
	srv := New(&stubHandler{})

	for _, path := range []string{"/", "/healthz"} {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	srv := New(&stubHandler{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, "1", retryAfterSeconds(0))
	assert.Equal(t, "2", retryAfterSeconds(1500*time.Millisecond))
}
