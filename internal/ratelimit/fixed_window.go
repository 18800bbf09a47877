package ratelimit

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	count     int
	resetTime time.Time
}

// In-process fixed-window limiter. State is local to this process, so with N
// instances behind a load balancer the effective limit is N times the zone
// limit; use the Redis backend to share counts.
type MemoryLimiter struct {
	mu            sync.Mutex
	entries       map[string]*entry
	sweepInterval time.Duration
	lastSweep     time.Time
	now           func() time.Time
}

type MemoryConfig struct {
	SweepInterval time.Duration // Default: 1 minute
	Now           func() time.Time
}

func NewMemoryLimiter(cfg MemoryConfig) *MemoryLimiter {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &MemoryLimiter{
		entries:       make(map[string]*entry),
		sweepInterval: cfg.SweepInterval,
		lastSweep:     cfg.Now(),
		now:           cfg.Now,
	}
}

// Never returns an error
func (m *MemoryLimiter) Check(_ context.Context, identity string, zone Zone) (Result, error) {
	key := zone.Name + ":" + identity

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	e, ok := m.entries[key]
	if !ok || now.After(e.resetTime) {
		e = &entry{count: 1, resetTime: now.Add(zone.Window)}
		m.entries[key] = e
		return Result{
			Allowed:   true,
			Limit:     zone.MaxRequests,
			Remaining: zone.MaxRequests - 1,
			ResetTime: e.resetTime,
		}, nil
	}

	// Rejections leave the entry untouched so the window is not extended
	if e.count >= zone.MaxRequests {
		return Result{
			Allowed:   false,
			Limit:     zone.MaxRequests,
			Remaining: 0,
			ResetTime: e.resetTime,
		}, nil
	}

	e.count++
	return Result{
		Allowed:   true,
		Limit:     zone.MaxRequests,
		Remaining: zone.MaxRequests - e.count,
		ResetTime: e.resetTime,
	}, nil
}

// Drops expired entries, at most once per sweep interval. Must be called with mu held.
func (m *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < m.sweepInterval {
		return
	}
	for key, e := range m.entries {
		if now.After(e.resetTime) {
			delete(m.entries, key)
		}
	}
	m.lastSweep = now
}

// Number of tracked keys
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
