package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agentdesk/agent"
	"github.com/hupe1980/agentdesk/core"
	"github.com/hupe1980/agentdesk/model"
)

// TurnRecord summarizes a committed turn.
type TurnRecord struct {
	Identity    string
	UserMessage string
	Response    string
	Agent       string // active agent after the turn
	Iterations  int
	Handoffs    int
	Duration    time.Duration
	Timestamp   time.Time
}

// turnState is the staged, uncommitted state of an in-flight turn.
type turnState struct {
	identity string
	history  []core.Message
	active   agent.Agent
	handoffs int
}

func (e *Engine) runTurn(ctx context.Context, sess *core.Session, pending ...core.Message) (*TurnRecord, error) {
	start := time.Now()

	st := &turnState{
		identity: sess.Identity,
		history:  append(core.CloneMessages(sess.History), pending...),
		active:   e.resolveAgent(sess.ActiveAgent),
	}

	limiter := core.NewIterationLimiter(e.config.MaxIterations)

	e.logger.Debug("turn.start", "identity", st.identity, "agent", st.active.Name(), "history", len(st.history))

	content, err := e.loop(ctx, st, limiter)
	if err != nil {
		e.logger.Error("turn.failed",
			"identity", st.identity,
			"agent", st.active.Name(),
			"iterations", limiter.Count(),
			"duration", time.Since(start),
			"error", err.Error(),
		)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("turn aborted before commit: %w", err)
	}

	// Commit.
	sess.History = st.history
	sess.ActiveAgent = st.active.Name()

	record := &TurnRecord{
		Identity:   st.identity,
		Response:   content,
		Agent:      st.active.Name(),
		Iterations: limiter.Count(),
		Handoffs:   st.handoffs,
		Duration:   time.Since(start),
		Timestamp:  time.Now().UTC(),
	}

	e.logger.Info("turn.completed",
		"identity", st.identity,
		"agent", record.Agent,
		"iterations", record.Iterations,
		"handoffs", record.Handoffs,
		"duration", record.Duration,
	)

	return record, nil
}

// loop iterates completion calls and tool resolution until plain content.
func (e *Engine) loop(ctx context.Context, st *turnState, limiter *core.IterationLimiter) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("turn aborted: %w", err)
		}

		if err := limiter.Increment(); err != nil {
			return "", err
		}

		speaker := st.active

		defs, err := e.registry.SchemaFor(speaker.Tools())
		if err != nil {
			return "", fmt.Errorf("agent %q toolset: %w", speaker.Name(), err)
		}

		system, err := speaker.SystemPrompt(st.identity)
		if err != nil {
			return "", fmt.Errorf("agent %q instructions: %w", speaker.Name(), err)
		}

		req := model.Request{
			Model:    speaker.Model(),
			System:   system,
			Messages: st.history,
			Tools:    defs,
		}

		if err := e.callbacks.ExecuteCallbacks(ctx, CallbackBeforeModel, &CallbackContext{
			Identity: st.identity,
			Agent:    speaker.Name(),
		}); err != nil {
			return "", err
		}

		callStart := time.Now()

		resp, err := e.complete(ctx, req)
		if err != nil {
			return "", err
		}

		tokens := 0
		if resp.Usage != nil {
			tokens = resp.Usage.TotalTokens
		}

		_ = e.callbacks.ExecuteCallbacks(ctx, CallbackAfterModel, &CallbackContext{
			Identity: st.identity,
			Agent:    speaker.Name(),
			Duration: time.Since(callStart),
			Metadata: map[string]any{
				"model":      e.model.Info().Name,
				"tokens":     tokens,
				"tool_calls": len(resp.ToolCalls),
			},
		})

		st.history = append(st.history, core.NewAssistantMessage(speaker.Name(), resp.Content, resp.ToolCalls))

		if !resp.HasToolCalls() {
			return resp.Content, nil
		}

		// Each call is authorized against the agent active when it runs, so
		// calls after a handoff in the same batch use the target's toolset.
		for _, call := range resp.ToolCalls {
			if err := ctx.Err(); err != nil {
				return "", fmt.Errorf("turn aborted: %w", err)
			}

			caller := st.active

			content, target := e.dispatch(ctx, st.identity, caller, call)

			if target != nil {
				from := st.active.Name()
				st.active = *target
				st.handoffs++

				e.logger.Info("agent.handoff", "identity", st.identity, "from", from, "to", target.Name())

				_ = e.callbacks.ExecuteCallbacks(ctx, CallbackOnHandoff, &CallbackContext{
					Identity:  st.identity,
					Agent:     target.Name(),
					FromAgent: from,
					ToAgent:   target.Name(),
				})
			}

			st.history = append(st.history, core.NewToolMessage(caller.Name(), call.ID, call.Name, content))
		}
	}
}

// complete performs one completion call under the configured timeout.
func (e *Engine) complete(ctx context.Context, req model.Request) (*model.Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.config.CompletionTimeout)
	defer cancel()

	start := time.Now()
	resp, err := e.model.Generate(callCtx, req)
	dur := time.Since(start)

	info := e.model.Info()

	if err != nil {
		// A cancelled parent is not an upstream failure.
		if ctx.Err() != nil {
			return nil, fmt.Errorf("turn aborted: %w", ctx.Err())
		}

		e.logger.Error("llm.call.failed", "model", info.Name, "provider", info.Provider, "duration", dur, "error", err.Error())

		return nil, fmt.Errorf("%w: %w", core.ErrUpstreamUnavailable, err)
	}

	if resp == nil {
		return nil, fmt.Errorf("%w: empty response", core.ErrUpstreamUnavailable)
	}

	tokens := 0
	if resp.Usage != nil {
		tokens = resp.Usage.TotalTokens
	}

	e.logger.Debug("llm.call.completed",
		"model", info.Name,
		"provider", info.Provider,
		"token_count", tokens,
		"tool_calls", len(resp.ToolCalls),
		"duration", dur,
	)

	return resp, nil
}

// resolveAgent maps a stored agent name to the catalog, falling back to the
// default for names that are no longer known.
func (e *Engine) resolveAgent(name string) agent.Agent {
	if a, ok := e.catalog.Resolve(name); ok {
		return a
	}

	if name != "" {
		e.logger.Warn("agent.unknown", "agent", name, "fallback", e.catalog.DefaultName())
	}

	return e.catalog.Default()
}
