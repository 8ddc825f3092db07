package core

import (
	"time"
)

// Session is the per-identity conversation state: an ordered transcript, the
// currently active agent and activity timestamps.
//
// Contract:
//   - A Session is exclusively owned by a session store. Callers receive the live
//     value only inside the store's scoped accessor and must not retain it.
//   - History is append-only except for Reset.
//   - Clone performs a deep copy for snapshots handed outside the store.
type Session struct {
	Identity     string    `json:"identity"`
	History      []Message `json:"history"`
	ActiveAgent  string    `json:"active_agent"`
	Created      time.Time `json:"created"`
	LastActivity time.Time `json:"last_activity"`
}

// NewSession creates an empty session for identity with the given agent active.
func NewSession(identity, defaultAgent string) *Session {
	now := time.Now()
	return &Session{
		Identity:     identity,
		History:      []Message{},
		ActiveAgent:  defaultAgent,
		Created:      now,
		LastActivity: now,
	}
}

// Append adds messages to the end of the history.
func (s *Session) Append(msgs ...Message) {
	s.History = append(s.History, msgs...)
}

// Reset clears the history and restores agent as the active agent.
func (s *Session) Reset(agent string) {
	s.History = []Message{}
	s.ActiveAgent = agent
}

// Touch refreshes the last-activity timestamp.
func (s *Session) Touch(now time.Time) { s.LastActivity = now }

// IdleSince reports how long the session has been idle at now.
func (s *Session) IdleSince(now time.Time) time.Duration { return now.Sub(s.LastActivity) }

// Len returns the number of stored messages.
func (s *Session) Len() int { return len(s.History) }

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	clone := *s
	clone.History = CloneMessages(s.History)
	if clone.History == nil {
		clone.History = []Message{}
	}
	return &clone
}
