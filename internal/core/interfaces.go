// Package core defines the domain values shared by the signup packages.
package core

import (
	"context"
	"time"
)

// Event records one signup round for one participant.
type Event struct {
	Email     string
	Round     int
	Timestamp time.Time
	Duration  time.Duration
	Outcome   string // classified outcome, e.g. "ride full"
	State     string // state after the transition, e.g. "done (full)"
	Done      bool
	Reason    string // "success", "full" or "error" once Done
}

// Reporter receives an Event after every signup round.
type Reporter interface {
	Report(Event)
}

// NullReporter discards all events.
var NullReporter Reporter = nullReporter{}

type nullReporter struct{}

func (nullReporter) Report(Event) {}

// MultiReporter fans an event out to every reporter in order.
type MultiReporter []Reporter

func (m MultiReporter) Report(e Event) {
	for _, r := range m {
		if r != nil {
			r.Report(e)
		}
	}
}

// Context key for passing the participant's email to the transport.
type contextKey string

const participantContextKey contextKey = "participant"

func ContextWithParticipant(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, participantContextKey, email)
}

func ParticipantFromContext(ctx context.Context) string {
	if email, ok := ctx.Value(participantContextKey).(string); ok {
		return email
	}
	return ""
}
