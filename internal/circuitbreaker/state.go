package circuitbreaker

type State int

const (
	// Calls pass through to the protected backend
	StateClosed State = iota

	// Calls fail fast with ErrOpen until the cool-down elapses
	StateOpen

	// A limited number of trial calls decide whether to close again
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}
