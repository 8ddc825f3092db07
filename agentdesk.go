// Package agentdesk wires the bakery help desk together: the SQLite-backed
// shop and transcript archive, the tool registry and agent catalog, the turn
// engine with its session store and janitor, and the chat webhook.
//
// Most programs build a Desk from a config.Config and either call Run to
// serve the webhook or HandleMessage to drive turns directly:
//
//	cfg, _ := config.Load("agentdesk.json")
//	desk, err := agentdesk.New(ctx, cfg)
//	if err != nil { ... }
//	defer desk.Close()
//	err = desk.Run(ctx)
package agentdesk

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agentdesk/agent"
	"github.com/hupe1980/agentdesk/archive"
	"github.com/hupe1980/agentdesk/bakery"
	"github.com/hupe1980/agentdesk/config"
	"github.com/hupe1980/agentdesk/engine"
	"github.com/hupe1980/agentdesk/internal/database"
	"github.com/hupe1980/agentdesk/logging"
	"github.com/hupe1980/agentdesk/model"
	"github.com/hupe1980/agentdesk/model/anthropic"
	"github.com/hupe1980/agentdesk/model/gemini"
	"github.com/hupe1980/agentdesk/model/openai"
	"github.com/hupe1980/agentdesk/session"
	"github.com/hupe1980/agentdesk/tool"
	"github.com/hupe1980/agentdesk/transport/webhook"
)

// Options configures a Desk.
type Options struct {
	// Model overrides the provider selected by the config.
	Model model.Model

	// Logger defaults to a DeskLogger built from the config's log settings
	// writing to stderr.
	Logger *logging.DeskLogger

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	// Rand drives the payment simulation. Defaults to a time-seeded source.
	Rand *rand.Rand

	// Callbacks are registered on the engine after the built-in ones.
	Callbacks []engine.Callback
}

// Desk is a fully wired help desk.
type Desk struct {
	cfg    *config.Config
	db     *sql.DB
	logger *logging.DeskLogger

	engine   *engine.Engine
	sessions *session.InMemoryStore
	janitor  *session.Janitor
	catalog  *agent.Catalog
	registry *tool.Registry
	archive  archive.Store
	shop     *bakery.Store
	toolkit  *bakery.Toolkit
	limiter  *webhook.RateLimiter
	server   *webhook.Server
}

// New validates cfg, opens the database and wires every component.
func New(ctx context.Context, cfg *config.Config, optFns ...func(o *Options)) (*Desk, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("agentdesk: invalid config: %w", err)
	}

	opts := Options{Clock: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("agentdesk: %w", err)
		}
		opts.Logger = logging.NewLogger(&logging.LoggerConfig{
			Level:  level,
			Format: cfg.LogFormat,
			Output: os.Stderr,
		})
	}

	faqs, err := loadFAQs(cfg.FAQPath)
	if err != nil {
		return nil, err
	}

	m := opts.Model
	if m == nil {
		if m, err = NewModel(ctx, cfg); err != nil {
			return nil, err
		}
	}

	db, err := database.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("agentdesk: %w", err)
	}

	d, err := build(ctx, cfg, db, m, faqs, opts)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return d, nil
}

func build(ctx context.Context, cfg *config.Config, db *sql.DB, m model.Model, faqs []bakery.FAQ, opts Options) (*Desk, error) {
	logger := opts.Logger

	arch, err := archive.NewSQLiteStore(ctx, db)
	if err != nil {
		return nil, err
	}

	shop, err := bakery.NewStore(ctx, db, func(o *bakery.StoreOptions) { o.Clock = opts.Clock })
	if err != nil {
		return nil, err
	}

	auth := bakery.NewAdminAuth(cfg.AdminPassword, 0, opts.Clock)

	toolkit := bakery.NewToolkit(shop, func(o *bakery.Options) {
		o.Archive = arch
		o.Gateway = bakery.NewGateway(opts.Rand, opts.Clock)
		o.Auth = auth
		o.Clock = opts.Clock
		if faqs != nil {
			o.FAQs = faqs
		}
	})

	registry, err := tool.NewRegistry()
	if err != nil {
		return nil, err
	}
	if err := toolkit.Register(registry); err != nil {
		return nil, fmt.Errorf("agentdesk: %w", err)
	}

	catalog := bakery.Catalog(m.Info().Name)

	sessions := session.NewInMemoryStore(catalog.DefaultName(), func(o *session.Options) {
		o.Logger = logger.WithComponent("session")
		o.Clock = opts.Clock
	})

	callbacks := append([]engine.Callback{archive.NewCallback(arch, logger.WithComponent("archive"))},
		auditCallbacks(logger.WithComponent("audit"))...)

	eng, err := engine.New(catalog, registry, m, sessions, func(o *engine.Options) {
		o.Config = engine.Config{
			MaxIterations:     cfg.MaxIterations,
			CompletionTimeout: cfg.CompletionTimeout.Std(),
			ToolTimeout:       cfg.ToolTimeout.Std(),
		}
		o.Logger = logger.WithComponent("engine")
		o.Callbacks = append(callbacks, opts.Callbacks...)
	})
	if err != nil {
		return nil, fmt.Errorf("agentdesk: %w", err)
	}

	limiter := webhook.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, opts.Clock)

	janitor := session.NewJanitor(sessions, func(o *session.JanitorOptions) {
		o.Interval = cfg.SweepInterval.Std()
		o.MaxIdle = cfg.SessionMaxIdle.Std()
		o.Logger = logger.WithComponent("janitor")
		o.Clock = opts.Clock
		o.Hooks = []func(time.Time){limiter.Prune, auth.Prune}
	})

	server := webhook.New(eng, func(o *webhook.Options) {
		o.InputFormat = cfg.InputFormat
		o.Limiter = limiter
		o.Logger = logger.WithComponent("webhook")
	})

	logger.Info("desk.ready",
		"model", m.Info().Name,
		"provider", m.Info().Provider,
		"agents", len(catalog.Names()),
		"tools", len(toolkit.Tools()),
	)

	return &Desk{
		cfg:      cfg,
		db:       db,
		logger:   logger,
		engine:   eng,
		sessions: sessions,
		janitor:  janitor,
		catalog:  catalog,
		registry: registry,
		archive:  arch,
		shop:     shop,
		toolkit:  toolkit,
		limiter:  limiter,
		server:   server,
	}, nil
}

// NewModel selects the completion provider named by cfg.
func NewModel(ctx context.Context, cfg *config.Config) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			o.Model = cfg.ModelName
			o.APIKey = cfg.APIKey
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(cfg.ModelName)
			o.APIKey = cfg.APIKey
		}), nil
	case config.ProviderGemini:
		m, err := gemini.NewModel(ctx, func(o *gemini.Options) {
			o.Model = cfg.ModelName
			o.APIKey = cfg.APIKey
		})
		if err != nil {
			return nil, fmt.Errorf("agentdesk: gemini: %w", err)
		}
		return m, nil
	case config.ProviderOffline:
		return NewOfflineModel(), nil
	default:
		return nil, fmt.Errorf("agentdesk: unknown provider %q", cfg.Provider)
	}
}

func loadFAQs(path string) ([]bakery.FAQ, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("agentdesk: faq: %w", err)
	}
	defer f.Close()

	faqs, err := bakery.ParseFAQ(f)
	if err != nil {
		return nil, fmt.Errorf("agentdesk: faq %s: %w", path, err)
	}

	return faqs, nil
}

// auditCallbacks emit one info record per model call, tool call and
// committed turn.
func auditCallbacks(logger *logging.DeskLogger) []engine.Callback {
	return []engine.Callback{
		engine.NewFunctionCallback(engine.CallbackAfterModel, func(_ context.Context, cc *engine.CallbackContext) error {
			name, _ := cc.Metadata["model"].(string)
			tokens, _ := cc.Metadata["tokens"].(int)
			logger.WithIdentity(cc.Identity).WithAgent(cc.Agent).LogLLMCall(name, tokens, cc.Duration, nil)
			return nil
		}),
		engine.NewFunctionCallback(engine.CallbackAfterTool, func(_ context.Context, cc *engine.CallbackContext) error {
			logger.WithIdentity(cc.Identity).WithAgent(cc.Agent).LogToolCall(cc.Call.Name, cc.Duration, cc.Err)
			return nil
		}),
		engine.NewFunctionCallback(engine.CallbackOnTurnCommitted, func(_ context.Context, cc *engine.CallbackContext) error {
			logger.WithIdentity(cc.Identity).WithAgent(cc.Agent).LogTurn(cc.Turn.Iterations, cc.Turn.Handoffs, cc.Turn.Duration, nil)
			return nil
		}),
		engine.NewFunctionCallback(engine.CallbackOnError, func(_ context.Context, cc *engine.CallbackContext) error {
			logger.WithIdentity(cc.Identity).LogTurn(0, 0, 0, cc.Err)
			return nil
		}),
	}
}

// HandleMessage runs one turn for identity.
func (d *Desk) HandleMessage(ctx context.Context, identity, text string) (string, error) {
	return d.engine.HandleMessage(ctx, identity, text)
}

// Handler returns the webhook HTTP handler.
func (d *Desk) Handler() http.Handler { return d.server.Handler() }

// Run serves the webhook on the configured address and sweeps idle sessions
// until ctx is cancelled or the server fails.
func (d *Desk) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return d.server.Run(ctx, d.cfg.ListenAddr) })
	g.Go(func() error { return d.janitor.Run(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

// Close releases the database.
func (d *Desk) Close() error { return d.db.Close() }

// Engine returns the turn engine.
func (d *Desk) Engine() *engine.Engine { return d.engine }

// Sessions returns the session store.
func (d *Desk) Sessions() *session.InMemoryStore { return d.sessions }

// Janitor returns the idle-session janitor.
func (d *Desk) Janitor() *session.Janitor { return d.janitor }

// Catalog returns the agent catalog.
func (d *Desk) Catalog() *agent.Catalog { return d.catalog }

// Registry returns the tool registry.
func (d *Desk) Registry() *tool.Registry { return d.registry }

// Archive returns the transcript archive.
func (d *Desk) Archive() archive.Store { return d.archive }

// Shop returns the bakery store.
func (d *Desk) Shop() *bakery.Store { return d.shop }

// Logger returns the desk logger.
func (d *Desk) Logger() *logging.DeskLogger { return d.logger }
