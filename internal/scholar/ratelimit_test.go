package scholar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowConsumesTokens(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	assert.True(t, rl.Allow())
	assert.True(t, rl.Allow())
	assert.False(t, rl.Allow())
}

func TestRateLimiter_WaitRespectsContext(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	require.NoError(t, rl.Wait(context.Background())) // first token is free

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx)
	require.Error(t, err)
}

func TestRateLimiter_SetRate(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	require.True(t, rl.Allow())
	require.False(t, rl.Allow())

	rl.SetRate(1000)
	time.Sleep(5 * time.Millisecond)

	assert.True(t, rl.Allow())
}
