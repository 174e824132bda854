package pipeline

import "sync/atomic"

// State is the position of a pipeline in its batch cycle.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateValidating
	StateResolving
	StateWriting
	StateCommitted
	// StatePartiallyRejected means the batch was not durably written. Its
	// records stay pending and are retried on the next cycle.
	StatePartiallyRejected
	// StateHalted is terminal: the retry budget ran out and the consumption
	// position no longer advances.
	StateHalted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateValidating:
		return "validating"
	case StateResolving:
		return "resolving"
	case StateWriting:
		return "writing"
	case StateCommitted:
		return "committed"
	case StatePartiallyRejected:
		return "partially_rejected"
	case StateHalted:
		return "halted"
	default:
		return "unknown"
	}
}

type atomicState struct {
	v atomic.Int32
}

func (a *atomicState) Load() State {
	return State(a.v.Load())
}

func (a *atomicState) Store(s State) {
	a.v.Store(int32(s))
}
