//go:build integration

package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/aman-churiwal/media-quota/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLimiterFixedWindow(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client, err := storage.NewRedis(addr, "", 0)
	require.NoError(t, err)
	defer client.Close()

	l := NewRedisLimiter(client)
	ctx := context.Background()
	zone := Zone{Name: "it-" + uuid.NewString(), Window: 2 * time.Second, MaxRequests: 3}

	for i := 0; i < 3; i++ {
		res, err := l.Check(ctx, "u1", zone)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := l.Check(ctx, "u1", zone)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	time.Sleep(2100 * time.Millisecond)
	res, err = l.Check(ctx, "u1", zone)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Remaining)
}
