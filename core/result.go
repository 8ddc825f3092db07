package core

// ResultKind discriminates the ToolResult variant.
type ResultKind int

const (
	// ResultData is an ordinary tool result carrying arbitrary data.
	ResultData ResultKind = iota
	// ResultHandoff designates another agent as the new active agent.
	ResultHandoff
)

// String returns the string representation of the result kind.
func (k ResultKind) String() string {
	switch k {
	case ResultData:
		return "data"
	case ResultHandoff:
		return "handoff"
	default:
		return "unknown"
	}
}

// ToolResult is the tagged outcome of a tool call. Exactly one of Data or Target
// is meaningful, selected by Kind.
type ToolResult struct {
	Kind   ResultKind
	Data   any    // Set for ResultData; any JSON-serializable value
	Target string // Set for ResultHandoff; name of the destination agent
}

// Data wraps an ordinary result value.
func Data(v any) ToolResult { return ToolResult{Kind: ResultData, Data: v} }

// Handoff creates a handoff token designating target as the next active agent.
func Handoff(target string) ToolResult { return ToolResult{Kind: ResultHandoff, Target: target} }

// IsHandoff reports whether r is a handoff token.
func (r ToolResult) IsHandoff() bool { return r.Kind == ResultHandoff }
