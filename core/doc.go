// Package core provides the foundational domain types shared by every agentdesk
// component. It defines:
//
//   - Messages (a closed set of roles: system, user, assistant, tool)
//   - ToolCall / ToolResult (the tagged variant separating data from handoffs)
//   - Sessions (per-identity conversation state owned by a session store)
//   - ToolContext (the scoped surface handed to tool implementations)
//   - The error taxonomy used by the turn loop (ErrToolNotFound, ErrInvalidArguments,
//     ErrUpstreamUnavailable, ErrTurnLoopExceeded)
//
// The package keeps implementation concerns (storage, model providers, transport)
// out of scope so higher layers can depend on small, stable contracts.
package core
