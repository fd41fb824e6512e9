package retry

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// RateLimiter paces API requests with a token bucket that starts full.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows perSecond requests per second, with a burst of the
// same size (at least one).
func NewRateLimiter(perSecond float64) *RateLimiter {
	burst := int(math.Ceil(perSecond))
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Wait blocks until a request may proceed or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Limit is the sustained rate in requests per second.
func (r *RateLimiter) Limit() float64 {
	return float64(r.limiter.Limit())
}

func (r *RateLimiter) Burst() int {
	return r.limiter.Burst()
}
