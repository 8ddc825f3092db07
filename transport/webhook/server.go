package webhook

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hupe1980/agentdesk/core"
	"github.com/hupe1980/agentdesk/logging"
	"github.com/hupe1980/agentdesk/respond"
	"github.com/hupe1980/agentdesk/session"
)

// MessageHandler runs one conversational turn. *engine.Engine satisfies it.
type MessageHandler interface {
	HandleMessage(ctx context.Context, identity, text string) (string, error)
}

// Options configures a Server.
type Options struct {
	// InputFormat is "json" or "form". Requests whose Content-Type says
	// otherwise are still accepted. Defaults to "json".
	InputFormat string

	// Limiter rate limits identities. Nil disables rate limiting.
	Limiter *RateLimiter

	// RetryAfter is advertised when the completion service is unavailable.
	RetryAfter time.Duration

	// Logger provides structured logging. Defaults to NoOpLogger.
	Logger logging.Logger
}

// User-facing error texts.
const (
	msgBadRequest  = "Sorry, I could not read your message."
	msgEmpty       = "Please send a message."
	msgRateLimited = "You're sending messages too quickly. Please wait a moment."
	msgUnavailable = "Sorry, I'm having trouble right now. Please try again shortly."
	msgInternal    = "Sorry, something went wrong. Please try again."
)

// Server serves the chat webhook.
type Server struct {
	handler     MessageHandler
	inputFormat string
	limiter     *RateLimiter
	retryAfter  time.Duration
	logger      logging.Logger
	router      *gin.Engine
}

// New creates a server. Call Handler for an http.Handler or Run to listen.
func New(handler MessageHandler, optFns ...func(o *Options)) *Server {
	opts := Options{
		InputFormat: "json",
		RetryAfter:  10 * time.Second,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	s := &Server{
		handler:     handler,
		inputFormat: strings.ToLower(opts.InputFormat),
		limiter:     opts.Limiter,
		retryAfter:  opts.RetryAfter,
		logger:      opts.Logger,
	}

	s.router = s.routes()

	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Welcome to the agentdesk API"})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/chat", s.handleChat)
	r.POST("/webhook", s.handleChat)

	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("http.server.start", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("webhook: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	s.logger.Info("http.server.stop", "addr", addr)

	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http.request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

type chatRequest struct {
	Message  string `json:"message" form:"Body"`
	Identity string `json:"identity" form:"From"`
}

func (s *Server) handleChat(c *gin.Context) {
	format := s.requestFormat(c)

	adapter, err := respond.For(format)
	if err != nil {
		adapter = respond.JSON{}
	}

	var req chatRequest

	if format == "form" {
		err = c.ShouldBind(&req)
	} else {
		err = c.ShouldBindJSON(&req)
	}

	if err != nil {
		s.logger.Warn("webhook.bad_request", "format", format, "error", err.Error())
		s.renderError(c, adapter, http.StatusBadRequest, msgBadRequest)
		return
	}

	identity := strings.TrimSpace(req.Identity)
	if identity == "" {
		s.renderError(c, adapter, http.StatusBadRequest, "Missing sender identity.")
		return
	}

	if s.limiter != nil {
		if ok, wait := s.limiter.Allow(identity); !ok {
			s.logger.Warn("webhook.rate_limited", "identity", identity)
			c.Header("Retry-After", retryAfterSeconds(wait))
			s.renderError(c, adapter, http.StatusTooManyRequests, msgRateLimited)
			return
		}
	}

	reply, err := s.handler.HandleMessage(c.Request.Context(), identity, req.Message)
	if err != nil {
		status, msg := s.classify(err)
		if status == http.StatusServiceUnavailable {
			c.Header("Retry-After", retryAfterSeconds(s.retryAfter))
		}

		s.logger.Error("webhook.turn.failed", "identity", identity, "status", status, "error", err.Error())
		s.renderError(c, adapter, status, msg)

		return
	}

	body, err := adapter.Render(reply)
	if err != nil {
		s.renderError(c, adapter, http.StatusInternalServerError, msgInternal)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, adapter.ContentType(), body)
}

// requestFormat picks the input format: form posts are recognized by their
// Content-Type, everything else uses the configured format.
func (s *Server) requestFormat(c *gin.Context) string {
	switch c.ContentType() {
	case gin.MIMEPOSTForm, gin.MIMEMultipartPOSTForm:
		return "form"
	case gin.MIMEJSON:
		return "json"
	}
	return s.inputFormat
}

// classify maps turn errors to a status code and a user-facing message.
func (s *Server) classify(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrEmptyMessage):
		return http.StatusBadRequest, msgEmpty
	case errors.Is(err, core.ErrUpstreamUnavailable),
		errors.Is(err, session.ErrLockTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, msgUnavailable
	default:
		// Includes core.ErrTurnLoopExceeded.
		return http.StatusInternalServerError, msgInternal
	}
}

func (s *Server) renderError(c *gin.Context, adapter respond.Adapter, status int, message string) {
	body, err := adapter.RenderError(message)
	if err != nil {
		c.AbortWithStatus(status)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Data(status, adapter.ContentType(), body)
	c.Abort()
}

func retryAfterSeconds(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
