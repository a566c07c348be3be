// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ratelimit tracks the request budget of one provider. A Limiter
// enforces two rules: a minimum interval between consecutive requests, and a
// quota of at most Q requests per 24h window anchored at the first request
// of the window.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/raquelpanapalen/trendgraph/pkg/types"
)

// DefaultWindow is the length of a quota window.
const DefaultWindow = 24 * time.Hour

// Limiter is safe for concurrent use. The counter and the window anchor are
// only touched under mu, so concurrent consumers never overrun the quota.
type Limiter struct {
	name          string
	quota         int
	window        time.Duration
	progressEvery int
	pace          *rate.Limiter

	mu          sync.Mutex
	count       int
	total       int64
	windowStart time.Time

	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	onWait func(time.Duration)
	log    zerolog.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the wall clock and the blocking sleep. Tests use it to
// observe quota waits without sleeping.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Limiter) {
		l.now = now
		l.sleep = sleep
	}
}

// WithWindow overrides DefaultWindow.
func WithWindow(d time.Duration) Option {
	return func(l *Limiter) { l.window = d }
}

// WithLogger sets the logger used for progress and quota reports.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Limiter) { l.log = log }
}

// WithWaitHook registers a callback invoked before every quota suspension.
func WithWaitHook(fn func(time.Duration)) Option {
	return func(l *Limiter) { l.onWait = fn }
}

// New creates a Limiter for the named provider.
func New(name string, cfg types.QuotaConfig, opts ...Option) *Limiter {
	l := &Limiter{
		name:          name,
		quota:         cfg.DailyQuota,
		window:        DefaultWindow,
		progressEvery: cfg.ProgressEvery,
		now:           time.Now,
		sleep:         sleepContext,
		log:           zerolog.Nop(),
	}
	if cfg.Interval > 0 {
		l.pace = rate.NewLimiter(rate.Every(cfg.Interval), 1)
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Consume must be called before every outbound request. It waits for the
// pacing interval, counts the request, and when the quota of the current
// window is used up it suspends the caller until the window has elapsed,
// then starts a new window anchored at the resumption time.
//
// The only error is the context's, when ctx ends during a wait.
func (l *Limiter) Consume(ctx context.Context) error {
	if l.pace != nil {
		if err := l.pace.Wait(ctx); err != nil {
			return err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.quota > 0 && l.count >= l.quota {
		wait := l.windowStart.Add(l.window).Sub(now)
		if wait < 0 {
			wait = 0
		}
		if wait > l.window {
			wait = l.window
		}
		l.log.Info().
			Str("source", l.name).
			Int("quota", l.quota).
			Dur("wait", wait).
			Msg("request quota exhausted, suspending until window resets")
		if l.onWait != nil {
			l.onWait(wait)
		}
		if wait > 0 {
			if err := l.sleep(ctx, wait); err != nil {
				return err
			}
		}
		l.count = 0
		now = l.now()
	}

	if l.count == 0 {
		l.windowStart = now
	}
	l.count++
	l.total++

	if l.progressEvery > 0 && l.total%int64(l.progressEvery) == 0 {
		l.log.Info().
			Str("source", l.name).
			Int64("requests", l.total).
			Int("window_count", l.count).
			Msg("request progress")
	}
	return nil
}

// Name returns the provider name the Limiter was created for.
func (l *Limiter) Name() string { return l.name }

// Count returns the number of requests counted in the current window.
func (l *Limiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Total returns the number of requests counted since the Limiter was created.
func (l *Limiter) Total() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// WindowStart returns the anchor of the current window (zero before the
// first request).
func (l *Limiter) WindowStart() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.windowStart
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
