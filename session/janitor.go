package session

import (
	"context"
	"time"

	"github.com/hupe1980/agentdesk/logging"
)

// Evicter is implemented by stores that can drop idle sessions.
type Evicter interface {
	EvictExpired(now time.Time, maxIdle time.Duration) int
}

// JanitorOptions configure a Janitor.
type JanitorOptions struct {
	Interval time.Duration
	MaxIdle  time.Duration
	Logger   logging.Logger
	Clock    func() time.Time
	// Hooks run after every sweep with the sweep time, e.g. to prune
	// per-identity rate limiters alongside sessions.
	Hooks []func(now time.Time)
}

// Janitor periodically evicts idle sessions.
type Janitor struct {
	store Evicter
	opts  JanitorOptions
}

// NewJanitor creates a janitor for store. Defaults: sweep every 5 minutes,
// evict after 24 hours of inactivity.
func NewJanitor(store Evicter, optFns ...func(o *JanitorOptions)) *Janitor {
	opts := JanitorOptions{
		Interval: 5 * time.Minute,
		MaxIdle:  24 * time.Hour,
		Logger:   logging.NoOpLogger{},
		Clock:    time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Janitor{store: store, opts: opts}
}

// Sweep runs one eviction pass plus hooks and returns the number of evicted sessions.
func (j *Janitor) Sweep() int {
	now := j.opts.Clock()

	n := j.store.EvictExpired(now, j.opts.MaxIdle)
	for _, hook := range j.opts.Hooks {
		hook(now)
	}

	return n
}

// Run sweeps on every tick until ctx is done. It always returns nil so it
// composes with errgroup.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.opts.Interval)
	defer ticker.Stop()

	j.opts.Logger.Info("janitor.start", "interval", j.opts.Interval, "max_idle", j.opts.MaxIdle)

	for {
		select {
		case <-ctx.Done():
			j.opts.Logger.Info("janitor.stop")
			return nil
		case <-ticker.C:
			if n := j.Sweep(); n > 0 {
				j.opts.Logger.Debug("janitor.swept", "evicted", n)
			}
		}
	}
}
