package ratelimit

import (
	"testing"
	"time"

	"github.com/fixwell/backoffice/internal/clock"
	"github.com/stretchr/testify/assert"
)

func TestTokenBucketBurstThenRefill(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	tb := NewTokenBucket(1, 3, fake)

	assert.True(t, tb.Allow("cust-1"))
	assert.True(t, tb.Allow("cust-1"))
	assert.True(t, tb.Allow("cust-1"))
	assert.False(t, tb.Allow("cust-1"))

	// Another key has its own bucket.
	assert.True(t, tb.Allow("cust-2"))

	fake.Advance(2 * time.Second)
	assert.True(t, tb.Allow("cust-1"))
	assert.True(t, tb.Allow("cust-1"))
	assert.False(t, tb.Allow("cust-1"))
}

func TestTokenBucketNeverOverfills(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	tb := NewTokenBucket(10, 2, fake)

	assert.True(t, tb.Allow("k"))
	fake.Advance(time.Hour)

	assert.True(t, tb.Allow("k"))
	assert.True(t, tb.Allow("k"))
	assert.False(t, tb.Allow("k"))
}
