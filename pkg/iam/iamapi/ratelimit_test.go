package iamapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIPRateLimiterIsPerIP(t *testing.T) {
	rl := NewIPRateLimiter(0.001, 1, time.Minute)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestIPRateLimiterEvictsIdleEntries(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewIPRateLimiter(1, 1, time.Minute)
	rl.now = func() time.Time { return now }

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")
	assert.Equal(t, 2, rl.Len())

	now = now.Add(2 * time.Minute)
	rl.Allow("10.0.0.3")
	assert.Equal(t, 1, rl.Len())
}
