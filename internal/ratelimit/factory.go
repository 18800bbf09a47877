package ratelimit

import (
	"time"

	"github.com/aman-churiwal/media-quota/internal/circuitbreaker"
	"github.com/aman-churiwal/media-quota/internal/config"
	"github.com/aman-churiwal/media-quota/internal/metrics"
	"github.com/aman-churiwal/media-quota/internal/storage"
	"github.com/sirupsen/logrus"
)

// Builds the limiter selected by cfg.Backend. The redis backend needs a
// connected client; without one it degrades to the in-process limiter.
func New(cfg config.RateLimitConfig, redis *storage.RedisClient, log logrus.FieldLogger, m *metrics.Metrics) Limiter {
	memory := NewMemoryLimiter(MemoryConfig{
		SweepInterval: time.Duration(cfg.SweepIntervalMs) * time.Millisecond,
	})

	switch cfg.Backend {
	case "redis":
		if redis == nil {
			log.Warn("rate_limit.backend is redis but redis is not connected, using in-process limiter")
			return memory
		}

		breaker := circuitbreaker.New(circuitbreaker.Config{
			Name:            "ratelimit-redis",
			MaxFailures:     cfg.Breaker.MaxFailures,
			Timeout:         time.Duration(cfg.Breaker.TimeoutSeconds) * time.Second,
			HalfOpenSuccess: cfg.Breaker.HalfOpenSuccess,
			OnStateChange: func(name string, from, to circuitbreaker.State) {
				log.WithFields(logrus.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("circuit breaker state changed")
				if m != nil {
					m.SetBreakerState(name, int(to))
				}
			},
		})

		var onFallback func()
		if m != nil {
			onFallback = m.RecordRateLimitFallback
		}

		log.Info("using redis rate limiter with in-process fallback")
		return NewFallbackLimiter(NewRedisLimiter(redis), memory, breaker, log, onFallback)
	default:
		return memory
	}
}
