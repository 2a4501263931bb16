package model

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimitedModel gates Generate calls on a token bucket limiter. Waiting for a
// token honours ctx cancellation.
type RateLimitedModel struct {
	inner   Model
	limiter *rate.Limiter
}

// NewRateLimited wraps inner allowing rps calls per second with the given burst.
func NewRateLimited(inner Model, rps float64, burst int) *RateLimitedModel {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedModel{inner: inner, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// NewRateLimitedWithLimiter wraps inner with an existing limiter so several
// models can share one budget.
func NewRateLimitedWithLimiter(inner Model, limiter *rate.Limiter) *RateLimitedModel {
	return &RateLimitedModel{inner: inner, limiter: limiter}
}

// Generate implements Model.
func (m *RateLimitedModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	if err := m.limiter.Wait(ctx); err != nil {
		respCh := make(chan Response)
		errCh := make(chan error, 1)
		close(respCh)
		errCh <- err
		close(errCh)
		return respCh, errCh
	}
	return m.inner.Generate(ctx, req)
}

// Info implements Model.
func (m *RateLimitedModel) Info() Info { return m.inner.Info() }
