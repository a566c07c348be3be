// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP exchange shared by every provider adapter.
package httputil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 1 * time.Second

// DefaultMaxAttempts is the number of attempts when the caller passes 0.
const DefaultMaxAttempts = 3

// Budget is consumed once before every HTTP attempt.
type Budget interface {
	Consume(ctx context.Context) error
}

// Attempt describes a failed attempt that will be retried.
type Attempt struct {
	Number int
	Status int
	Err    error
	Wait   time.Duration
}

// Options tunes DoWithRetry. The zero value uses the defaults.
type Options struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay overrides RetryBaseDelay when non-zero.
	BaseDelay time.Duration

	// OnRetry is called before each backoff wait.
	OnRetry func(Attempt)
}

// DoWithRetry executes an HTTP request and retries on HTTP 429, 5xx and
// transport errors with exponential backoff: base, 2×base, 4×base, ... A
// Retry-After header on the response replaces the computed delay.
//
// budget.Consume is called before every attempt, so each HTTP call is counted
// exactly once. If the context is cancelled during a backoff wait the
// function returns ctx.Err(). After exhausting attempts the last retryable
// response is returned so the caller can inspect its status, or the last
// transport error when no response was received.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, budget Budget, opts Options) (*http.Response, error) {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	base := opts.BaseDelay
	if base <= 0 {
		base = RetryBaseDelay
	}

	for attempt := 1; ; attempt++ {
		if budget != nil {
			if err := budget.Consume(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || attempt >= maxAttempts {
				return nil, err
			}
			wait := backoff(base, attempt)
			if opts.OnRetry != nil {
				opts.OnRetry(Attempt{Number: attempt, Err: err, Wait: wait})
			}
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		if !retryable(resp.StatusCode) || attempt >= maxAttempts {
			return resp, nil
		}

		wait := retryAfter(resp, backoff(base, attempt))

		// Drain and close the body before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if opts.OnRetry != nil {
			opts.OnRetry(Attempt{Number: attempt, Status: resp.StatusCode, Wait: wait})
		}
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

func backoff(base time.Duration, attempt int) time.Duration {
	return base << (attempt - 1)
}

// retryAfter honors a Retry-After header given in seconds or as an HTTP date.
func retryAfter(resp *http.Response, fallback time.Duration) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return fallback
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
