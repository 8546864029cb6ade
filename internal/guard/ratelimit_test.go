package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterEnforcesLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Check(ctx, "p1").Allowed)
	}

	result := rl.Check(ctx, "p1")
	assert.False(t, result.Allowed)
	assert.Contains(t, result.Reason, "rate limit exceeded")
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	ctx := context.Background()

	assert.True(t, rl.Check(ctx, "p1").Allowed)
	assert.False(t, rl.Check(ctx, "p1").Allowed)
	assert.True(t, rl.Check(ctx, "p2").Allowed)
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)
	ctx := context.Background()

	assert.True(t, rl.Check(ctx, "p1").Allowed)
	assert.False(t, rl.Check(ctx, "p1").Allowed)

	time.Sleep(15 * time.Millisecond)
	assert.True(t, rl.Check(ctx, "p1").Allowed)
}
