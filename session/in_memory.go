package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/agentdesk/core"
	"github.com/hupe1980/agentdesk/logging"
)

// ErrLockTimeout is returned when the context ends while waiting for a session lock.
var ErrLockTimeout = errors.New("context cancelled while waiting for session lock")

// semaphore is a per-identity mutex using a buffered channel.
type semaphore chan struct{}

func newSemaphore() semaphore {
	s := make(semaphore, 1)
	s <- struct{}{} // initially unlocked
	return s
}

func (s semaphore) acquire(ctx context.Context) error {
	select {
	case <-s:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
	}
}

func (s semaphore) tryAcquire() bool {
	select {
	case <-s:
		return true
	default:
		return false
	}
}

func (s semaphore) release() { s <- struct{}{} }

// entry pairs a session with its lock. evicted is set (under the lock) when the
// entry has been removed from the map so that late waiters retry.
type entry struct {
	sem     semaphore
	sess    *core.Session
	evicted bool
}

// Options configure an InMemoryStore.
type Options struct {
	Logger logging.Logger
	// Clock returns the current time; defaults to time.Now.
	Clock func() time.Time
}

// InMemoryStore is a process local session store. It is safe for concurrent
// access: the map is guarded by a store-wide mutex held only for lookups, and
// each session by its own semaphore held for the duration of a turn.
type InMemoryStore struct {
	mu           sync.Mutex
	entries      map[string]*entry
	defaultAgent string
	clock        func() time.Time
	logger       logging.Logger
}

// NewInMemoryStore constructs an empty store. New sessions start with defaultAgent active.
func NewInMemoryStore(defaultAgent string, optFns ...func(o *Options)) *InMemoryStore {
	opts := Options{
		Logger: logging.NoOpLogger{},
		Clock:  time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &InMemoryStore{
		entries:      make(map[string]*entry),
		defaultAgent: defaultAgent,
		clock:        opts.Clock,
		logger:       opts.Logger,
	}
}

// DefaultAgent returns the agent new and reset sessions start with.
func (s *InMemoryStore) DefaultAgent() string { return s.defaultAgent }

// lookup returns the entry for identity, creating it when missing.
func (s *InMemoryStore) lookup(identity string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[identity]
	if !ok {
		e = s.createEntryLocked(identity)
	}

	return e
}

// createEntryLocked allocates and stores a new entry; caller must hold s.mu.
func (s *InMemoryStore) createEntryLocked(identity string) *entry {
	now := s.clock()

	sess := core.NewSession(identity, s.defaultAgent)
	sess.Created = now
	sess.LastActivity = now

	e := &entry{sem: newSemaphore(), sess: sess}
	s.entries[identity] = e

	s.logger.Debug("session.created", "identity", identity)

	return e
}

// WithSession runs fn with exclusive access to the live session for identity,
// creating it if necessary. The lock is released on every exit path, including
// panics. Waiting for the lock honours ctx.
func (s *InMemoryStore) WithSession(ctx context.Context, identity string, fn func(sess *core.Session) error) error {
	for {
		e := s.lookup(identity)

		if err := e.sem.acquire(ctx); err != nil {
			return err
		}

		if e.evicted {
			e.sem.release()
			continue
		}

		return func() error {
			defer e.sem.release()
			return fn(e.sess)
		}()
	}
}

// GetOrCreate returns a snapshot of the session for identity, creating it if
// necessary. It never fails.
func (s *InMemoryStore) GetOrCreate(identity string) *core.Session {
	var snap *core.Session

	_ = s.WithSession(context.Background(), identity, func(sess *core.Session) error {
		snap = sess.Clone()
		return nil
	})

	return snap
}

// Snapshot returns a copy of an existing session without creating one.
func (s *InMemoryStore) Snapshot(identity string) (*core.Session, bool) {
	s.mu.Lock()
	e, ok := s.entries[identity]
	s.mu.Unlock()

	if !ok {
		return nil, false
	}

	_ = e.sem.acquire(context.Background())
	defer e.sem.release()

	if e.evicted {
		return nil, false
	}

	return e.sess.Clone(), true
}

// Touch refreshes the session's last-activity time. Call it from within WithSession.
func (s *InMemoryStore) Touch(sess *core.Session) {
	sess.Touch(s.clock())
}

// Reset clears the history of identity and restores defaultAgent.
func (s *InMemoryStore) Reset(ctx context.Context, identity, defaultAgent string) error {
	if defaultAgent == "" {
		defaultAgent = s.defaultAgent
	}

	return s.WithSession(ctx, identity, func(sess *core.Session) error {
		sess.Reset(defaultAgent)
		s.Touch(sess)
		s.logger.Info("session.reset", "identity", identity, "agent", defaultAgent)
		return nil
	})
}

// EvictExpired removes sessions idle for longer than maxIdle and returns how
// many were removed. Sessions whose lock is held (mid-turn) are skipped.
func (s *InMemoryStore) EvictExpired(now time.Time, maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0

	for identity, e := range s.entries {
		if !e.sem.tryAcquire() {
			continue // in use, therefore not idle
		}

		if e.sess.IdleSince(now) > maxIdle {
			e.evicted = true
			delete(s.entries, identity)
			evicted++
			s.logger.Debug("session.evicted", "identity", identity, "idle", e.sess.IdleSince(now))
		}

		e.sem.release()
	}

	if evicted > 0 {
		s.logger.Info("session.sweep", "evicted", evicted, "remaining", len(s.entries))
	}

	return evicted
}

// Len returns the number of live sessions.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Identities lists the identities with a live session.
func (s *InMemoryStore) Identities() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.entries))
	for id := range s.entries {
		out = append(out, id)
	}

	return out
}
