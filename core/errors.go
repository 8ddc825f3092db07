package core

import "errors"

var (
	// ErrToolNotFound reports a tool name the registry (or the active agent) cannot resolve.
	// The turn loop feeds it back to the model as an error-shaped tool result.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidArguments reports a tool call whose arguments do not match the tool schema.
	// Like ErrToolNotFound it never aborts a turn.
	ErrInvalidArguments = errors.New("invalid arguments")

	// ErrUpstreamUnavailable wraps a failed or timed out completion call. The turn is aborted
	// without committing history, so callers may retry.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrTurnLoopExceeded is returned when a turn hits the tool-resolution iteration cap.
	ErrTurnLoopExceeded = errors.New("turn loop exceeded")

	// ErrEmptyMessage is returned for inbound messages without any text.
	ErrEmptyMessage = errors.New("empty message")
)

// IsRetryable reports whether err is a transient failure that is safe to retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}
