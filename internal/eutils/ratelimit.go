// Package eutils provides a rate-limited client for the NCBI
// E-utilities API, fetching citation and full-text XML from the pubmed
// and pmc databases.
package eutils

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter wraps a token bucket limiter controlling the request rate
// to the E-utilities API. NCBI allows 3 requests per second without an
// API key and 10 with one. Safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a rate limiter with the given sustained rate
// per second and burst size.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

// Wait blocks until a request is allowed or the context is canceled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Allow reports whether a request is allowed right now, consuming a
// token when it is.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// SetRate updates the sustained rate, preserving the burst size. Used
// when an API key is configured after construction.
func (r *RateLimiter) SetRate(ratePerSecond float64) {
	r.limiter.SetLimit(rate.Limit(ratePerSecond))
}

// Tokens returns the number of tokens currently available.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
