package core

import (
	"fmt"
	"sync"
)

// IterationLimiter enforces a maximum number of tool-resolution iterations per turn.
type IterationLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewIterationLimiter creates a new limiter with a max number of iterations.
// A non-positive max is treated as 1 so a turn can always terminate.
func NewIterationLimiter(max int) *IterationLimiter {
	if max <= 0 {
		max = 1
	}
	return &IterationLimiter{max: max}
}

// Increment increases the iteration counter and returns ErrTurnLoopExceeded once
// the limit is passed.
func (l *IterationLimiter) Increment() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count++
	if l.count > l.max {
		return fmt.Errorf("%w: more than %d iterations", ErrTurnLoopExceeded, l.max)
	}

	return nil
}

// Count returns the current number of iterations.
func (l *IterationLimiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.count
}

// Remaining returns how many iterations are left before hitting the limit.
func (l *IterationLimiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.max - l.count
}
