// Package locks serializes work per key with bounded-hold leases.
//
// A lease held longer than its maximum hold may be taken over by a waiter.
// The previous holder is not interrupted; callers must fence their writes
// (the item store's compare-and-swap does this) so a stale holder cannot
// overwrite the newer holder's result.
package locks

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBusy is returned when a lease could not be obtained within the wait bound.
var ErrBusy = errors.New("lease busy")

type lease struct {
	acquiredAt time.Time
	done       chan struct{}
}

type Leases struct {
	maxHold time.Duration
	maxWait time.Duration
	now     func() time.Time

	onTakeover func(key string)

	mu   sync.Mutex
	held map[string]*lease
}

type Option func(*Leases)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Leases) { l.now = now }
}

// WithTakeoverHook is called, outside the internal lock, each time an
// expired lease is taken over.
func WithTakeoverHook(fn func(key string)) Option {
	return func(l *Leases) { l.onTakeover = fn }
}

func NewLeases(maxHold, maxWait time.Duration, opts ...Option) *Leases {
	l := &Leases{
		maxHold: maxHold,
		maxWait: maxWait,
		now:     time.Now,
		held:    make(map[string]*lease),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Acquire blocks until the lease for key is free, has outlived its maximum
// hold, or maxWait elapses (ErrBusy). Cancelling ctx returns ctx.Err().
// The returned release is idempotent and must be called on every path.
func (l *Leases) Acquire(ctx context.Context, key string) (release func(), err error) {
	deadline := time.NewTimer(l.maxWait)
	defer deadline.Stop()

	for {
		l.mu.Lock()
		cur, busy := l.held[key]
		now := l.now()
		switch {
		case !busy:
			return l.grant(key, now), nil
		case now.Sub(cur.acquiredAt) >= l.maxHold:
			close(cur.done)
			release := l.grant(key, now)
			if l.onTakeover != nil {
				l.onTakeover(key)
			}
			return release, nil
		}
		done := cur.done
		expiry := time.NewTimer(cur.acquiredAt.Add(l.maxHold).Sub(now))
		l.mu.Unlock()

		select {
		case <-done:
		case <-expiry.C:
		case <-deadline.C:
			expiry.Stop()
			return nil, ErrBusy
		case <-ctx.Done():
			expiry.Stop()
			return nil, ctx.Err()
		}
		expiry.Stop()
	}
}

// grant installs a new lease for key and unlocks l.mu.
func (l *Leases) grant(key string, now time.Time) func() {
	me := &lease{acquiredAt: now, done: make(chan struct{})}
	l.held[key] = me
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if l.held[key] == me {
				delete(l.held, key)
				close(me.done)
			}
		})
	}
}

// Held reports the number of keys currently leased.
func (l *Leases) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}
