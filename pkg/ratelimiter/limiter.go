package ratelimiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter wraps golang.org/x/time/rate.Limiter.
type RateLimiter struct {
	limiter *rate.Limiter
	burst   int
	rps     int
}

// New creates a rate limiter from requests-per-second and burst size.
func New(rps, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		burst:   burst,
		rps:     rps,
	}
}

// Wait blocks until a token is available or the context is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

// TryAcquire attempts to acquire a token without blocking.
func (rl *RateLimiter) TryAcquire() bool {
	return rl.limiter.Allow()
}

// Pooled hands out one limiter per key so independent endpoints are
// throttled separately.
type Pooled struct {
	mu       sync.Mutex
	limiters map[string]*RateLimiter
	rps      int
	burst    int
}

func NewPooled(rps, burst int) *Pooled {
	return &Pooled{
		limiters: make(map[string]*RateLimiter),
		rps:      rps,
		burst:    burst,
	}
}

func (p *Pooled) get(key string) *RateLimiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	rl, ok := p.limiters[key]
	if !ok {
		rl = New(p.rps, p.burst)
		p.limiters[key] = rl
	}
	return rl
}

// Wait blocks on the limiter for key.
func (p *Pooled) Wait(ctx context.Context, key string) error {
	return p.get(key).Wait(ctx)
}

// Stats reports approximate available tokens per key.
func (p *Pooled) Stats() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]int, len(p.limiters))
	for k, rl := range p.limiters {
		n := int(rl.limiter.Tokens())
		if n < 0 {
			n = 0
		}
		out[k] = n
	}
	return out
}

// Interval converts a per-token duration into RPS for callers configured
// with durations.
func Interval(d time.Duration) int {
	if d <= 0 {
		return 1
	}
	rps := int(time.Second / d)
	if rps <= 0 {
		rps = 1
	}
	return rps
}
