package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentdesk/core"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore() (*InMemoryStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	return NewInMemoryStore("BakeryBot", func(o *Options) { o.Clock = clock.Now }), clock
}

func TestGetOrCreate(t *testing.T) {
	store, _ := newTestStore()

	sess := store.GetOrCreate("+1")
	require.NotNil(t, sess)
	assert.Equal(t, "+1", sess.Identity)
	assert.Equal(t, "BakeryBot", sess.ActiveAgent)
	assert.Empty(t, sess.History)
	assert.Equal(t, 1, store.Len())

	// Snapshot is detached from the live session.
	sess.Append(core.NewUserMessage("mutated"))
	again := store.GetOrCreate("+1")
	assert.Empty(t, again.History)
}

func TestSnapshot(t *testing.T) {
	store, _ := newTestStore()

	_, ok := store.Snapshot("+1")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len(), "snapshot never creates")

	require.NoError(t, store.WithSession(context.Background(), "+1", func(s *core.Session) error {
		s.Append(core.NewUserMessage("hi"))
		return nil
	}))

	snap, ok := store.Snapshot("+1")
	require.True(t, ok)
	assert.Equal(t, 1, snap.Len())
}

func TestWithSession_ReleasesOnErrorAndPanic(t *testing.T) {
	store, _ := newTestStore()
	boom := errors.New("boom")

	err := store.WithSession(context.Background(), "+1", func(*core.Session) error { return boom })
	assert.ErrorIs(t, err, boom)

	assert.Panics(t, func() {
		_ = store.WithSession(context.Background(), "+1", func(*core.Session) error { panic("tool exploded") })
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, store.WithSession(ctx, "+1", func(*core.Session) error { return nil }), "lock must be free")
}

func TestWithSession_SerializesSameIdentity(t *testing.T) {
	store, _ := newTestStore()

	var (
		inFlight int32
		maxSeen  int32
		wg       sync.WaitGroup
	)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.WithSession(context.Background(), "+1", func(s *core.Session) error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					m := atomic.LoadInt32(&maxSeen)
					if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				s.Append(core.NewUserMessage("x"))
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
	snap, _ := store.Snapshot("+1")
	assert.Equal(t, 20, snap.Len())
}

func TestWithSession_DifferentIdentitiesRunInParallel(t *testing.T) {
	store, _ := newTestStore()

	entered := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = store.WithSession(context.Background(), "+1", func(*core.Session) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, store.WithSession(ctx, "+2", func(*core.Session) error { return nil }))

	close(release)
}

func TestWithSession_HonoursContextWhileWaiting(t *testing.T) {
	store, _ := newTestStore()

	entered := make(chan struct{})
	release := make(chan struct{})
	defer close(release)

	go func() {
		_ = store.WithSession(context.Background(), "+1", func(*core.Session) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := store.WithSession(ctx, "+1", func(*core.Session) error { return nil })
	assert.ErrorIs(t, err, ErrLockTimeout)
}

func TestReset(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	require.NoError(t, store.WithSession(ctx, "+1", func(s *core.Session) error {
		s.Append(core.NewUserMessage("hi"))
		s.ActiveAgent = "Order Agent"
		return nil
	}))

	require.NoError(t, store.Reset(ctx, "+1", ""))

	snap, ok := store.Snapshot("+1")
	require.True(t, ok)
	assert.Empty(t, snap.History)
	assert.Equal(t, "BakeryBot", snap.ActiveAgent)
}

func TestEvictExpired(t *testing.T) {
	store, clock := newTestStore()
	ctx := context.Background()

	store.GetOrCreate("+old")
	clock.Advance(2 * time.Hour)
	require.NoError(t, store.WithSession(ctx, "+fresh", func(s *core.Session) error {
		store.Touch(s)
		return nil
	}))

	n := store.EvictExpired(clock.Now(), time.Hour)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, store.Len())

	_, ok := store.Snapshot("+old")
	assert.False(t, ok)

	// A fresh request after eviction starts a new empty session.
	sess := store.GetOrCreate("+old")
	assert.Empty(t, sess.History)
	assert.Equal(t, "BakeryBot", sess.ActiveAgent)
}

func TestEvictExpired_SkipsLockedSession(t *testing.T) {
	store, clock := newTestStore()

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		_ = store.WithSession(context.Background(), "+1", func(s *core.Session) error {
			close(entered)
			<-release
			s.Append(core.NewUserMessage("still here"))
			return nil
		})
	}()
	<-entered

	clock.Advance(48 * time.Hour)
	assert.Equal(t, 0, store.EvictExpired(clock.Now(), time.Hour))

	close(release)
	<-done

	snap, ok := store.Snapshot("+1")
	require.True(t, ok)
	assert.Equal(t, 1, snap.Len())
}

func TestWithSession_AfterEviction(t *testing.T) {
	store, clock := newTestStore()
	store.GetOrCreate("+1")
	clock.Advance(48 * time.Hour)

	// Evict, then make sure a new turn lands in the live map, not the orphan.
	store.EvictExpired(clock.Now(), time.Hour)
	require.NoError(t, store.WithSession(context.Background(), "+1", func(s *core.Session) error {
		s.Append(core.NewUserMessage("hi"))
		return nil
	}))

	snap, ok := store.Snapshot("+1")
	require.True(t, ok)
	assert.Equal(t, 1, snap.Len())
}

func TestJanitor(t *testing.T) {
	store, clock := newTestStore()
	store.GetOrCreate("+1")
	clock.Advance(2 * time.Hour)

	var hookCalls int32
	j := NewJanitor(store, func(o *JanitorOptions) {
		o.Interval = 5 * time.Millisecond
		o.MaxIdle = time.Hour
		o.Clock = clock.Now
		o.Hooks = append(o.Hooks, func(time.Time) { atomic.AddInt32(&hookCalls, 1) })
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	require.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
	assert.Positive(t, atomic.LoadInt32(&hookCalls))
}
