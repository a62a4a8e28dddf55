package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arturoeanton/gitgrade-analyzer/internal/domain"
	"github.com/arturoeanton/gitgrade-analyzer/internal/port"
)

// RateLimiter enforces a fixed-window request quota per identity.
//
// The check reads the record and writes it back in two separate store calls.
// Two concurrent requests from the same identity can both pass when the quota
// has one request left; this is a known limitation until the store offers an
// atomic increment.
type RateLimiter struct {
	store  port.RateLimitStore
	max    int
	window time.Duration
}

// NewRateLimiter creates a limiter allowing max requests per window.
func NewRateLimiter(store port.RateLimitStore, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{store: store, max: max, window: window}
}

// Allow records one request for identity at now. It returns an error wrapping
// ErrRateLimited once the quota for the current window is used up. Store
// failures are logged and the request is allowed.
func (l *RateLimiter) Allow(ctx context.Context, identity string, now time.Time) error {
	if l.max <= 0 {
		return nil
	}

	rec, err := l.store.GetRateLimit(ctx, identity)
	if err != nil {
		slog.Warn("rate limit lookup failed, allowing request", "identity", identity, "error", err)
		return nil
	}

	if rec == nil || now.Sub(rec.WindowStart) >= l.window {
		rec = &domain.RateLimitRecord{Identity: identity, WindowStart: now}
	}

	if rec.RequestCount >= l.max {
		retry := rec.WindowStart.Add(l.window).Sub(now).Round(time.Second)
		return fmt.Errorf("%w: %d requests per %s, retry in %s", port.ErrRateLimited, l.max, l.window, retry)
	}

	rec.RequestCount++
	if err := l.store.PutRateLimit(ctx, *rec); err != nil {
		slog.Warn("rate limit update failed", "identity", identity, "error", err)
	}
	return nil
}
