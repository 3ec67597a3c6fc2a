// Package limiter bounds how many heavy jobs run at once across the process.
package limiter

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned by Acquire once the limiter has been shut down.
var ErrClosed = errors.New("limiter closed")

// Limiter is a fixed-capacity counting permit pool.
type Limiter struct {
	name     string
	capacity int64
	sem      *semaphore.Weighted
	logger   *slog.Logger
	waitWarn time.Duration

	closed    context.Context
	closeFunc context.CancelFunc

	inUse   atomic.Int64
	maxSeen atomic.Int64
	waiting atomic.Int64
}

type Option func(*Limiter)

func WithLogger(l *slog.Logger) Option {
	return func(lim *Limiter) {
		if l != nil {
			lim.logger = l
		}
	}
}

// WithWaitWarn logs a warning whenever an acquisition waited longer than d.
func WithWaitWarn(d time.Duration) Option {
	return func(lim *Limiter) {
		if d > 0 {
			lim.waitWarn = d
		}
	}
}

func WithName(name string) Option {
	return func(lim *Limiter) {
		if name != "" {
			lim.name = name
		}
	}
}

// New returns a limiter with the given capacity. Capacities below 1 are raised to 1.
func New(capacity int, opts ...Option) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	closed, cancel := context.WithCancel(context.Background())
	l := &Limiter{
		name:      "jobs",
		capacity:  int64(capacity),
		sem:       semaphore.NewWeighted(int64(capacity)),
		logger:    slog.Default(),
		waitWarn:  10 * time.Second,
		closed:    closed,
		closeFunc: cancel,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Acquire blocks until a slot is free, ctx is done or the limiter is closed.
func (l *Limiter) Acquire(ctx context.Context) (*Permit, error) {
	if l.closed.Err() != nil {
		return nil, ErrClosed
	}

	acqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(l.closed, cancel)
	defer stop()

	start := time.Now()
	l.waiting.Add(1)
	err := l.sem.Acquire(acqCtx, 1)
	l.waiting.Add(-1)
	if err != nil {
		if l.closed.Err() != nil {
			return nil, ErrClosed
		}
		return nil, err
	}
	if l.closed.Err() != nil {
		l.sem.Release(1)
		return nil, ErrClosed
	}

	n := l.inUse.Add(1)
	for {
		peak := l.maxSeen.Load()
		if n <= peak || l.maxSeen.CompareAndSwap(peak, n) {
			break
		}
	}

	wait := time.Since(start)
	if wait >= l.waitWarn {
		l.logger.WarnContext(ctx, "limiter.acquire.slow",
			"limiter", l.name, "wait_ms", wait.Milliseconds(),
			"in_use", n, "capacity", l.capacity, "waiting", l.waiting.Load())
	} else {
		l.logger.DebugContext(ctx, "limiter.acquire",
			"limiter", l.name, "wait_ms", wait.Milliseconds(), "in_use", n, "capacity", l.capacity)
	}
	return &Permit{l: l}, nil
}

// Close wakes every blocked Acquire with ErrClosed and rejects new ones.
// Outstanding permits can still be released.
func (l *Limiter) Close() {
	l.closeFunc()
}

func (l *Limiter) Capacity() int { return int(l.capacity) }

func (l *Limiter) InUse() int { return int(l.inUse.Load()) }

// Waiting is the number of callers currently blocked in Acquire.
func (l *Limiter) Waiting() int { return int(l.waiting.Load()) }

// MaxInUse is the highest number of simultaneously held permits observed.
func (l *Limiter) MaxInUse() int { return int(l.maxSeen.Load()) }

// Permit is a lease on one limiter slot.
type Permit struct {
	l    *Limiter
	once sync.Once
}

// Release returns the slot. Safe to call more than once.
func (p *Permit) Release() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		p.l.inUse.Add(-1)
		p.l.sem.Release(1)
	})
}
