package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agentdesk/agent"
	"github.com/hupe1980/agentdesk/core"
	"github.com/hupe1980/agentdesk/logging"
	"github.com/hupe1980/agentdesk/model"
	"github.com/hupe1980/agentdesk/tool"
)

// Farewell is returned when an exit keyword resets the session.
const Farewell = "Goodbye! Conversation history has been cleared."

var exitKeywords = map[string]struct{}{
	"exit": {},
	"quit": {},
	"bye":  {},
}

// IsExitKeyword reports whether text is a session reset keyword.
func IsExitKeyword(text string) bool {
	_, ok := exitKeywords[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// Config defines tuning parameters for the turn loop.
type Config struct {
	// MaxIterations bounds completion calls per turn.
	MaxIterations int

	// CompletionTimeout bounds every completion call. Zero falls back to the default.
	CompletionTimeout time.Duration

	// ToolTimeout is set as deadline on every tool call's context.
	ToolTimeout time.Duration
}

// DefaultConfig provides production defaults.
var DefaultConfig = Config{
	MaxIterations:     10,
	CompletionTimeout: 60 * time.Second,
	ToolTimeout:       15 * time.Second,
}

func (c Config) withDefaults() Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultConfig.MaxIterations
	}
	if c.CompletionTimeout <= 0 {
		c.CompletionTimeout = DefaultConfig.CompletionTimeout
	}
	if c.ToolTimeout <= 0 {
		c.ToolTimeout = DefaultConfig.ToolTimeout
	}
	return c
}

// SessionStore is the subset of the session store the engine needs.
// *session.InMemoryStore satisfies it.
type SessionStore interface {
	WithSession(ctx context.Context, identity string, fn func(sess *core.Session) error) error
	Reset(ctx context.Context, identity, defaultAgent string) error
	Touch(sess *core.Session)
}

// Options configures an Engine.
type Options struct {
	// Config contains operational parameters. Defaults to DefaultConfig.
	Config Config

	// Logger provides structured logging. Defaults to NoOpLogger.
	Logger logging.Logger

	// Callbacks are registered on the engine's CallbackManager.
	Callbacks []Callback
}

// Engine runs turns against a catalog of agents, a tool registry and a
// completion model. It is safe for concurrent use; per-identity
// serialization is provided by the session store.
type Engine struct {
	catalog   *agent.Catalog
	registry  *tool.Registry
	model     model.Model
	store     SessionStore
	config    Config
	logger    logging.Logger
	callbacks *CallbackManager
}

// New creates an engine. The catalog is validated against the registry.
func New(
	catalog *agent.Catalog,
	registry *tool.Registry,
	m model.Model,
	store SessionStore,
	optFns ...func(o *Options),
) (*Engine, error) {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if catalog == nil || registry == nil || m == nil || store == nil {
		return nil, errors.New("engine: catalog, registry, model and store are required")
	}

	if err := catalog.Validate(registry); err != nil {
		return nil, fmt.Errorf("engine: invalid catalog: %w", err)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	cm := NewCallbackManager()
	for _, cb := range opts.Callbacks {
		cm.RegisterCallback(cb)
	}

	return &Engine{
		catalog:   catalog,
		registry:  registry,
		model:     m,
		store:     store,
		config:    opts.Config.withDefaults(),
		logger:    opts.Logger,
		callbacks: cm,
	}, nil
}

// Callbacks returns the engine's callback manager.
func (e *Engine) Callbacks() *CallbackManager { return e.callbacks }

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.config }

// Catalog returns the agent catalog.
func (e *Engine) Catalog() *agent.Catalog { return e.catalog }

// HandleMessage is the inbound boundary: exit keywords reset the session and
// return Farewell; any other non-empty text runs one turn under the
// identity's lock and returns the assistant's reply.
func (e *Engine) HandleMessage(ctx context.Context, identity, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", core.ErrEmptyMessage
	}

	if IsExitKeyword(text) {
		if err := e.store.Reset(ctx, identity, e.catalog.DefaultName()); err != nil {
			return "", err
		}
		e.logger.Info("session.exit", "identity", identity)
		return Farewell, nil
	}

	var record *TurnRecord

	err := e.store.WithSession(ctx, identity, func(sess *core.Session) error {
		r, err := e.runTurn(ctx, sess, core.NewUserMessage(text))
		if err != nil {
			return err
		}
		e.store.Touch(sess)
		record = r
		return nil
	})
	if err != nil {
		_ = e.callbacks.ExecuteCallbacks(ctx, CallbackOnError, &CallbackContext{Identity: identity, Err: err})
		return "", err
	}

	record.UserMessage = text
	if cbErr := e.callbacks.ExecuteCallbacks(ctx, CallbackOnTurnCommitted, &CallbackContext{
		Identity: identity,
		Agent:    record.Agent,
		Turn:     record,
	}); cbErr != nil {
		e.logger.Warn("turn.callback.error", "identity", identity, "error", cbErr.Error())
	}

	return record.Response, nil
}

// RunTurn runs one turn on sess, whose history must already end with the
// user's message. The caller must hold the session's lock (see
// session.InMemoryStore.WithSession). On error sess is unchanged.
func (e *Engine) RunTurn(ctx context.Context, sess *core.Session) (string, error) {
	r, err := e.runTurn(ctx, sess)
	if err != nil {
		return "", err
	}
	return r.Response, nil
}
