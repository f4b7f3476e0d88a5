package ratelimit

import (
	"github.com/fixwell/backoffice/internal/clock"
	"go.uber.org/fx"
)

// SubmitLimiter caps job submissions per customer.
type SubmitLimiter struct {
	*TokenBucket
}

func NewSubmitLimiter(clk clock.Clock) *SubmitLimiter {
	// One submission per 10 seconds sustained, bursts of 5.
	return &SubmitLimiter{TokenBucket: NewTokenBucket(0.1, 5, clk)}
}

var Module = fx.Module("ratelimit",
	fx.Provide(NewSubmitLimiter),
)
