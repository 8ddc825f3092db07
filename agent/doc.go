// Package agent defines the immutable Agent value and the process-wide Catalog
// of agents a conversation can be routed to.
//
// An agent is a persona: a name, instruction text and the set of tool names it
// may call. Handoff between agents happens through handoff tools (see
// tool.HandoffTool); the catalog validates at construction that every tool an
// agent names is registered and that every handoff target exists, so a running
// conversation can never be handed to an unknown agent.
package agent
