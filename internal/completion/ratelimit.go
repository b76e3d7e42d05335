package completion

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited bounds the rate of calls reaching the wrapped service.
type RateLimited struct {
	next    Service
	limiter *rate.Limiter
}

// NewRateLimited wraps next with a token bucket of rps and burst. A non-positive rps
// returns next unchanged.
func NewRateLimited(next Service, rps float64, burst int) Service {
	if rps <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Complete waits for a token, then forwards req.
func (r *RateLimited) Complete(ctx context.Context, req Request) (json.RawMessage, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("completion rate limit: %w", err)
	}
	return r.next.Complete(ctx, req)
}
