package storage

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"finly/internal/core"
)

// DefaultInitTimeout bounds how long a caller waits on an initialization
// started by someone else before giving up.
const DefaultInitTimeout = 10 * time.Second

// InitGuard collapses concurrent Initialize calls into a single in-flight
// setup. Waiters share the setup's outcome; once a setup has succeeded,
// later calls return immediately.
type InitGuard struct {
	group   singleflight.Group
	done    atomic.Bool
	timeout time.Duration
}

// NewInitGuard returns a guard with the given wait bound; zero or negative
// means DefaultInitTimeout.
func NewInitGuard(timeout time.Duration) *InitGuard {
	if timeout <= 0 {
		timeout = DefaultInitTimeout
	}
	return &InitGuard{timeout: timeout}
}

// Do runs setup at most once concurrently. Callers that arrive while a
// setup is in flight wait for its result, bounded by the guard timeout.
func (g *InitGuard) Do(ctx context.Context, setup func() error) error {
	if g.done.Load() {
		return nil
	}

	ch := g.group.DoChan("init", func() (any, error) {
		if err := setup(); err != nil {
			return nil, err
		}
		g.done.Store(true)
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(g.timeout):
		return core.ErrInitTimeout
	}
}

// Initialized reports whether a setup has completed successfully.
func (g *InitGuard) Initialized() bool {
	return g.done.Load()
}
