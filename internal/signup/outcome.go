// Package signup submits signup forms and decides what each response means.
//
// A round is Attempt.Run -> Classify -> Transition. Only Transition decides
// whether a participant's sequence is finished.
package signup

import (
	"fmt"
	"net/http"
)

// Messages the service sends for failures it knows about. Matching is exact.
const (
	MessageAlreadySignedUp = "It looks like you are already signed up with your email address"
	MessageRideNotFound    = "Groupride doesn't exist!"
	MessageRideFull        = "Groupride is full!"
)

// RawKind tells which transport-level case a RawOutcome holds.
type RawKind int

const (
	RawReply RawKind = iota
	RawTransportError
	RawHTTPStatus
	RawMalformedBody
)

// RawOutcome is the transport-level result of one attempt.
type RawOutcome struct {
	Kind       RawKind
	Reply      Reply  // RawReply
	StatusCode int    // RawHTTPStatus and RawMalformedBody
	Detail     string // everything except RawReply
}

func ReplyOutcome(r Reply) RawOutcome {
	return RawOutcome{Kind: RawReply, Reply: r}
}

func TransportError(err error) RawOutcome {
	return RawOutcome{Kind: RawTransportError, Detail: err.Error()}
}

func HTTPStatus(code int) RawOutcome {
	return RawOutcome{
		Kind:       RawHTTPStatus,
		StatusCode: code,
		Detail:     fmt.Sprintf("HTTP status %d %s", code, http.StatusText(code)),
	}
}

func MalformedBody(code int, err error, body []byte) RawOutcome {
	return RawOutcome{
		Kind:       RawMalformedBody,
		StatusCode: code,
		Detail:     fmt.Sprintf("%v: %s", err, body),
	}
}

// OutcomeKind is the tag of a classified Outcome.
type OutcomeKind int

const (
	Success OutcomeKind = iota + 1
	KnownFailure
	UnknownFailure
	TransportFailure
)

// Failure is a service-reported failure with a recognized message.
type Failure int

const (
	AlreadySignedUp Failure = iota + 1
	RideNotFound
	RideFull
)

func (f Failure) String() string {
	switch f {
	case AlreadySignedUp:
		return "already signed up"
	case RideNotFound:
		return "ride not found"
	case RideFull:
		return "ride full"
	}
	return fmt.Sprintf("Failure(%d)", int(f))
}

var knownFailures = map[string]Failure{
	MessageAlreadySignedUp: AlreadySignedUp,
	MessageRideNotFound:    RideNotFound,
	MessageRideFull:        RideFull,
}

// Outcome is what one attempt means for the participant.
type Outcome struct {
	Kind       OutcomeKind
	Failure    Failure // KnownFailure
	Detail     string  // UnknownFailure, TransportFailure
	Waitlisted bool    // Success; display only
}

func (o Outcome) String() string {
	switch o.Kind {
	case Success:
		if o.Waitlisted {
			return "success (waitlist)"
		}
		return "success"
	case KnownFailure:
		return o.Failure.String()
	case UnknownFailure:
		return "unknown failure: " + o.Detail
	case TransportFailure:
		return "transport failure: " + o.Detail
	}
	return "invalid outcome"
}

// Classify maps a raw outcome to its meaning. It is total.
func Classify(raw RawOutcome) Outcome {
	if raw.Kind != RawReply {
		return Outcome{Kind: TransportFailure, Detail: raw.Detail}
	}
	if raw.Reply.Error == nil {
		data := raw.Reply.SuccessData
		return Outcome{Kind: Success, Waitlisted: data != nil && data.IsWaitlist}
	}
	msg := *raw.Reply.Error
	if f, ok := knownFailures[msg]; ok {
		return Outcome{Kind: KnownFailure, Failure: f}
	}
	return Outcome{Kind: UnknownFailure, Detail: msg}
}
