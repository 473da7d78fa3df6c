package scholar

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter wraps a token bucket rate limiter for pacing requests to
// external services. It is safe for concurrent use because the underlying
// rate.Limiter is goroutine-safe for all operations.
//
// The pipeline uses it as its injectable pacing policy: production clients
// run with a sustained rate matching the provider's published limits, tests
// construct limiters with a high rate so paging adds no delay.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter. ratePerSecond is the sustained
// rate of requests per second and burst is the maximum number of tokens that
// can be consumed at once.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

// Wait blocks until a request is allowed or the context is canceled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Allow reports whether a request is allowed without waiting, consuming one
// token when it is.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// SetRate updates the rate limit while preserving the current burst size.
func (r *RateLimiter) SetRate(ratePerSecond float64) {
	r.limiter.SetLimit(rate.Limit(ratePerSecond))
}

// Tokens returns the current number of available tokens.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
