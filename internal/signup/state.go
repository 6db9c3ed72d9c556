package signup

import "fmt"

// Reason is why a sequence finished.
type Reason int

const (
	ReasonSuccess Reason = iota + 1
	ReasonFull
	ReasonError
)

func (r Reason) String() string {
	switch r {
	case ReasonSuccess:
		return "success"
	case ReasonFull:
		return "full"
	case ReasonError:
		return "error"
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// State is a participant's signup state. The zero value is Pending.
type State struct {
	done   bool
	reason Reason
	detail string
}

// Pending is the initial state.
var Pending = State{}

func DoneSuccess() State { return State{done: true, reason: ReasonSuccess} }
func DoneFull() State    { return State{done: true, reason: ReasonFull} }

func DoneError(detail string) State {
	return State{done: true, reason: ReasonError, detail: detail}
}

func (s State) IsDone() bool { return s.done }

// Reason is zero while the state is pending.
func (s State) Reason() Reason { return s.reason }

// Detail is set for ReasonError.
func (s State) Detail() string { return s.detail }

func (s State) String() string {
	if !s.done {
		return "pending"
	}
	if s.reason == ReasonError {
		return fmt.Sprintf("done (error: %s)", s.detail)
	}
	return fmt.Sprintf("done (%s)", s.reason)
}

// Transition returns the state after outcome. Done states never change.
// RideNotFound is the only outcome that leaves a pending state pending: the
// ride slug may not exist until signup opens.
func Transition(current State, outcome Outcome) State {
	if current.done {
		return current
	}
	switch outcome.Kind {
	case Success:
		return DoneSuccess()
	case KnownFailure:
		switch outcome.Failure {
		case AlreadySignedUp:
			return DoneSuccess()
		case RideFull:
			return DoneFull()
		case RideNotFound:
			return current
		}
		return DoneError("unrecognized failure " + outcome.Failure.String())
	case UnknownFailure, TransportFailure:
		return DoneError(outcome.Detail)
	}
	return DoneError(fmt.Sprintf("invalid outcome kind %d", int(outcome.Kind)))
}
