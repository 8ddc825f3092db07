// Package logging provides a minimal logging interface and slog-backed adapters.
//
// The Logger interface defines the leveled methods (Debug, Info, Warn, Error) the
// engine, session store and tools use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - DeskLogger with identity/agent scoping and turn, tool and model call helpers
//   - NoOpLogger for silent operation (tests, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	desk := agentdesk.New(catalog, registry, model, func(o *agentdesk.Options) { o.Logger = logger })
package logging
