package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aman-churiwal/media-quota/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

var uploadZone = Zone{Name: config.ZoneUpload, Window: time.Minute, MaxRequests: 10}

func newTestLimiter(clock *fakeClock) *MemoryLimiter {
	return NewMemoryLimiter(MemoryConfig{SweepInterval: time.Minute, Now: clock.Now})
}

func TestUploadZoneCountsDown(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := newTestLimiter(clock)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		res, err := l.Check(ctx, "u1", uploadZone)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i+1)
		assert.Equal(t, 9-i, res.Remaining)
		assert.Equal(t, 10, res.Limit)
		clock.Advance(50 * time.Millisecond)
	}

	res, err := l.Check(ctx, "u1", uploadZone)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func TestRejectionDoesNotExtendWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := newTestLimiter(clock)
	ctx := context.Background()
	zone := Zone{Name: "auth", Window: time.Minute, MaxRequests: 2}

	first, _ := l.Check(ctx, "1.2.3.4", zone)
	l.Check(ctx, "1.2.3.4", zone)

	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		res, _ := l.Check(ctx, "1.2.3.4", zone)
		assert.False(t, res.Allowed)
		assert.Equal(t, first.ResetTime, res.ResetTime)
	}

	l.mu.Lock()
	assert.Equal(t, 2, l.entries["auth:1.2.3.4"].count)
	l.mu.Unlock()
}

func TestWindowResetsAfterExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := newTestLimiter(clock)
	ctx := context.Background()

	for i := 0; i < 11; i++ {
		l.Check(ctx, "u1", uploadZone)
	}

	// The window is still open exactly at resetTime
	clock.Advance(time.Minute)
	res, _ := l.Check(ctx, "u1", uploadZone)
	assert.False(t, res.Allowed)

	clock.Advance(time.Millisecond)
	res, _ = l.Check(ctx, "u1", uploadZone)
	assert.True(t, res.Allowed)
	assert.Equal(t, 9, res.Remaining)
	assert.Equal(t, clock.Now().Add(time.Minute), res.ResetTime)
}

func TestZonesAndIdentitiesAreIndependent(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := newTestLimiter(clock)
	ctx := context.Background()
	tiny := Zone{Name: "payment", Window: time.Minute, MaxRequests: 1}

	res, _ := l.Check(ctx, "u1", tiny)
	assert.True(t, res.Allowed)
	res, _ = l.Check(ctx, "u1", tiny)
	assert.False(t, res.Allowed)

	res, _ = l.Check(ctx, "u2", tiny)
	assert.True(t, res.Allowed)

	res, _ = l.Check(ctx, "u1", uploadZone)
	assert.True(t, res.Allowed)
}

func TestSweepRemovesExpiredEntries(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := NewMemoryLimiter(MemoryConfig{SweepInterval: 30 * time.Second, Now: clock.Now})
	ctx := context.Background()
	short := Zone{Name: "api", Window: 10 * time.Second, MaxRequests: 5}

	l.Check(ctx, "a", short)
	l.Check(ctx, "b", short)
	require.Equal(t, 2, l.Len())

	// Expired but the sweep interval has not passed yet
	clock.Advance(20 * time.Second)
	l.Check(ctx, "c", short)
	assert.Equal(t, 3, l.Len())

	clock.Advance(15 * time.Second)
	l.Check(ctx, "d", short)
	assert.Equal(t, 1, l.Len())
}

func TestConcurrentChecksNeverOversell(t *testing.T) {
	l := NewMemoryLimiter(MemoryConfig{})
	zone := Zone{Name: "api", Window: time.Hour, MaxRequests: 100}

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 500; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, _ := l.Check(context.Background(), "shared", zone)
			if res.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), allowed.Load())
}

func TestRetryAfter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	res := Result{ResetTime: now.Add(1500 * time.Millisecond)}
	assert.Equal(t, 2, res.RetryAfter(now))
	assert.Equal(t, 0, res.RetryAfter(now.Add(time.Hour)))
}

func TestZonesFromConfig(t *testing.T) {
	zones := ZonesFromConfig(config.DefaultZones())

	require.Len(t, zones, 5)
	assert.Equal(t, Zone{Name: "auth", Window: 15 * time.Minute, MaxRequests: 5}, zones[config.ZoneAuth])
	assert.Equal(t, 200, zones[config.ZonePublic].MaxRequests)
}
