package ratelimit

import (
	"context"

	"github.com/aman-churiwal/media-quota/internal/circuitbreaker"
	"github.com/sirupsen/logrus"
)

// Answers from primary while it is healthy and from secondary when primary
// errors or its circuit is open. Admission decisions never surface an error.
type FallbackLimiter struct {
	primary    Limiter
	secondary  Limiter
	breaker    *circuitbreaker.CircuitBreaker
	log        logrus.FieldLogger
	onFallback func()
}

func NewFallbackLimiter(primary, secondary Limiter, breaker *circuitbreaker.CircuitBreaker, log logrus.FieldLogger, onFallback func()) *FallbackLimiter {
	return &FallbackLimiter{
		primary:    primary,
		secondary:  secondary,
		breaker:    breaker,
		log:        log,
		onFallback: onFallback,
	}
}

func (f *FallbackLimiter) Check(ctx context.Context, identity string, zone Zone) (Result, error) {
	var res Result
	err := f.breaker.Call(func() error {
		var err error
		res, err = f.primary.Check(ctx, identity, zone)
		return err
	})
	if err == nil {
		return res, nil
	}

	if err != circuitbreaker.ErrOpen {
		f.log.WithError(err).WithField("zone", zone.Name).Warn("shared rate limiter failed, using in-process limiter")
	}
	if f.onFallback != nil {
		f.onFallback()
	}
	return f.secondary.Check(ctx, identity, zone)
}

func (f *FallbackLimiter) Breaker() *circuitbreaker.CircuitBreaker {
	return f.breaker
}
