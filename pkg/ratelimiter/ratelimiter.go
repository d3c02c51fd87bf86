// Package ratelimiter bounds how fast viewers can submit questions, since
// every miss costs a model call and a synthesis call.
package ratelimiter

import (
	"sync"
	"time"
)

// RateLimiter admits or rejects one request without blocking.
type RateLimiter interface {
	Allow() bool
}

// TokenBucket admits bursts up to its capacity and refills at a steady rate.
type TokenBucket struct {
	mu       sync.Mutex
	rate     float64 // tokens per second
	capacity float64
	tokens   float64
	last     time.Time
}

// NewTokenBucket starts with a full bucket, so the first burst after a quiet
// period is admitted whole.
func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	return &TokenBucket{
		rate:     rate,
		capacity: float64(capacity),
		tokens:   float64(capacity),
		last:     time.Now(),
	}
}

// Allow consumes one token if available.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	if elapsed := now.Sub(tb.last); elapsed > 0 {
		tb.tokens += elapsed.Seconds() * tb.rate
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.last = now
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

var _ RateLimiter = (*TokenBucket)(nil)
