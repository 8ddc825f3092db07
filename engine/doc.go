// Package engine implements the turn orchestration core of agentdesk.
//
// # Turn loop
//
// RunTurn drives one conversational turn for a session: it synthesizes the
// active agent's system message, calls the completion model with the session
// transcript and the agent's permitted tools, executes requested tool calls in
// order and repeats until the model answers with plain content. A tool result
// carrying a handoff token swaps the active agent; the next iteration uses the
// new agent's instructions and toolset. The transcript stays one linear
// sequence across agents.
//
// # Staging and commit
//
// The loop works on a staged copy of the history and active agent. Both are
// committed to the session only when the turn succeeds, so a failed completion
// call (ErrUpstreamUnavailable), the iteration cap (ErrTurnLoopExceeded) or a
// cancelled context leave the session exactly as it was and a retry is safe.
//
// # Tool failures
//
// Unknown tools, invalid arguments, tool errors and tool panics never abort a
// turn. Each becomes an error-shaped tool result so the model can recover.
//
// # Boundary
//
// HandleMessage is the inbound operation used by transports: exit keywords
// reset the session, everything else runs a turn under the identity's lock.
package engine
