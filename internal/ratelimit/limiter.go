// Package ratelimit implements a fixed-window request counter keyed by
// client. Each key gets a window of fixed length; the count resets to one
// on the first request after the window elapses.
package ratelimit

import (
	"context"
	"time"

	"github.com/Stewz00/wordwave-auth/internal/interfaces"
	"github.com/Stewz00/wordwave-auth/internal/logging"
)

// Defaults for the global limiter.
const (
	DefaultMax    = 100
	DefaultWindow = 5 * time.Minute
)

// Entry is the counter state for one key.
type Entry struct {
	Count   int
	ResetAt time.Time
}

// Store is a key/value counter store. Update must apply fn atomically for a
// single key: no other Update for that key may interleave between reading
// cur and writing the returned entry.
//
// MemoryStore satisfies this exactly. A distributed store implementing it
// with optimistic retries may let two requests at the exact window rollover
// both start a fresh window; the limiter accepts that approximation.
type Store interface {
	Update(ctx context.Context, key string, fn func(cur Entry, found bool) Entry) (Entry, error)
	// DeleteExpired drops entries whose window ended at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// Result describes the quota after one request.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	// RetryAfter is the time left in the current window.
	RetryAfter time.Duration
}

// Config configures a Limiter. Zero values fall back to the defaults.
type Config struct {
	Max             int
	Window          time.Duration
	CleanupInterval time.Duration
}

type Limiter struct {
	store  Store
	clock  interfaces.Clock
	log    logging.Logger
	max    int
	window time.Duration
	sweep  time.Duration
}

func NewLimiter(cfg Config, store Store, clock interfaces.Clock, log logging.Logger) *Limiter {
	if cfg.Max <= 0 {
		cfg.Max = DefaultMax
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = cfg.Window
	}
	return &Limiter{
		store:  store,
		clock:  clock,
		log:    log,
		max:    cfg.Max,
		window: cfg.Window,
		sweep:  cfg.CleanupInterval,
	}
}

// Limit returns the maximum requests per window.
func (l *Limiter) Limit() int {
	return l.max
}

// Allow counts one request for key and reports whether it is within quota.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	now := l.clock.Now()

	entry, err := l.store.Update(ctx, key, func(cur Entry, found bool) Entry {
		if !found || !now.Before(cur.ResetAt) {
			return Entry{Count: 1, ResetAt: now.Add(l.window)}
		}
		cur.Count++
		return cur
	})
	if err != nil {
		return Result{}, err
	}

	remaining := l.max - entry.Count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:    entry.Count <= l.max,
		Limit:      l.max,
		Remaining:  remaining,
		ResetAt:    entry.ResetAt,
		RetryAfter: entry.ResetAt.Sub(now),
	}, nil
}

// Cleanup drops every entry whose window has elapsed.
func (l *Limiter) Cleanup(ctx context.Context) (int, error) {
	return l.store.DeleteExpired(ctx, l.clock.Now())
}

// Run sweeps expired entries every cleanup interval until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := l.Cleanup(ctx)
			if err != nil {
				l.log.Warn(ctx, "rate limit sweep failed", "error", err)
				continue
			}
			if n > 0 {
				l.log.Debug(ctx, "rate limit sweep", "removed", n)
			}
		}
	}
}
