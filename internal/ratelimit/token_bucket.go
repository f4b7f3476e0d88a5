package ratelimit

import (
	"sync"
	"time"

	"github.com/fixwell/backoffice/internal/clock"
)

// TokenBucket is a keyed in-process limiter. Each key refills at rate tokens
// per second up to burst. Single-instance deployments only; a multi-node
// setup needs a shared store in front of this.
type TokenBucket struct {
	mu      sync.Mutex
	rate    float64
	burst   float64
	clock   clock.Clock
	buckets map[string]*bucket
}

type bucket struct {
	tokens float64
	ts     time.Time
}

func NewTokenBucket(rate float64, burst int, clk clock.Clock) *TokenBucket {
	if rate <= 0 {
		rate = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &TokenBucket{
		rate:    rate,
		burst:   float64(burst),
		clock:   clk,
		buckets: make(map[string]*bucket),
	}
}

// Allow consumes one token for the key, reporting whether the call is within
// the limit.
func (t *TokenBucket) Allow(key string) bool {
	if t == nil || key == "" {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	b, ok := t.buckets[key]
	if !ok {
		b = &bucket{tokens: t.burst, ts: now}
		t.buckets[key] = b
	} else {
		elapsed := now.Sub(b.ts).Seconds()
		if elapsed > 0 {
			b.tokens += elapsed * t.rate
			if b.tokens > t.burst {
				b.tokens = t.burst
			}
		}
		b.ts = now
	}

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
