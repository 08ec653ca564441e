// Package ratelimit enforces the global minimum spacing between outbound
// fetch attempts.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limiter admits one fetch per configured delay, process-wide. Admission is
// serialized by the underlying token bucket, so the spacing guarantee holds
// even if the driver is ever parallelized.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter with the given minimum delay between admissions.
// A non-positive delay disables throttling.
func New(delay time.Duration) *Limiter {
	r := rate.Inf
	if delay > 0 {
		r = rate.Every(delay)
	}
	return &Limiter{
		limiter: rate.NewLimiter(r, 1),
	}
}

// Wait blocks until the next fetch may be admitted, respecting the context.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}
