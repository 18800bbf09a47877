package ratelimit

import (
	"context"
	"math"
	"time"

	"github.com/aman-churiwal/media-quota/internal/config"
)

// A named endpoint category with its own fixed-window quota
type Zone struct {
	Name        string
	Window      time.Duration
	MaxRequests int
}

// Outcome of a single admission check
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetTime time.Time
}

// Seconds until the window resets, never negative
func (r Result) RetryAfter(now time.Time) int {
	secs := int(math.Ceil(r.ResetTime.Sub(now).Seconds()))
	if secs < 0 {
		return 0
	}
	return secs
}

type Limiter interface {
	// Counts one request for identity in zone and reports whether it is admitted
	Check(ctx context.Context, identity string, zone Zone) (Result, error)
}

func ZonesFromConfig(zones map[string]config.ZoneConfig) map[string]Zone {
	out := make(map[string]Zone, len(zones))
	for name, z := range zones {
		out[name] = Zone{Name: name, Window: z.Window(), MaxRequests: z.MaxRequests}
	}
	return out
}
