package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

var errBackend = errors.New("backend down")

func newTestBreaker(clock *fakeClock, transitions *[]State) *CircuitBreaker {
	return New(Config{
		Name:            "redis",
		MaxFailures:     2,
		Timeout:         10 * time.Second,
		HalfOpenSuccess: 1,
		Now:             clock.Now,
		OnStateChange: func(_ string, _, to State) {
			*transitions = append(*transitions, to)
		},
	})
}

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	var transitions []State
	cb := newTestBreaker(clock, &transitions)

	assert.ErrorIs(t, cb.Call(func() error { return errBackend }), errBackend)
	assert.Equal(t, StateClosed, cb.State())

	assert.ErrorIs(t, cb.Call(func() error { return errBackend }), errBackend)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Call(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
	assert.Equal(t, []State{StateOpen}, transitions)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	var transitions []State
	cb := newTestBreaker(clock, &transitions)

	_ = cb.Call(func() error { return errBackend })
	require.NoError(t, cb.Call(func() error { return nil }))
	_ = cb.Call(func() error { return errBackend })

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 1, cb.Snapshot().FailureCount)
}

func TestHalfOpenRecovery(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	var transitions []State
	cb := newTestBreaker(clock, &transitions)

	_ = cb.Call(func() error { return errBackend })
	_ = cb.Call(func() error { return errBackend })
	require.Equal(t, StateOpen, cb.State())

	clock.Advance(11 * time.Second)
	require.NoError(t, cb.Call(func() error { return nil }))

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, []State{StateOpen, StateHalfOpen, StateClosed}, transitions)
}

func TestHalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	var transitions []State
	cb := newTestBreaker(clock, &transitions)

	_ = cb.Call(func() error { return errBackend })
	_ = cb.Call(func() error { return errBackend })

	clock.Advance(11 * time.Second)
	_ = cb.Call(func() error { return errBackend })
	assert.Equal(t, StateOpen, cb.State())

	// cool-down restarts from the half-open failure
	clock.Advance(5 * time.Second)
	assert.ErrorIs(t, cb.Call(func() error { return nil }), ErrOpen)
}

func TestReset(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	var transitions []State
	cb := newTestBreaker(clock, &transitions)

	_ = cb.Call(func() error { return errBackend })
	_ = cb.Call(func() error { return errBackend })
	cb.Reset()

	snap := cb.Snapshot()
	assert.Equal(t, "closed", snap.State)
	assert.Equal(t, 0, snap.FailureCount)
}
