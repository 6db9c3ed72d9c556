// Package poll drives signup rounds for one participant until the state is
// done.
package poll

import (
	"context"
	"errors"
	"time"

	"sattelclub/internal/core"
	"sattelclub/internal/ratelimit"
	"sattelclub/internal/signup"
)

// ErrMaxAttemptsReached indicates the driver stopped while still pending.
var ErrMaxAttemptsReached = errors.New("max attempts reached")

// Signer runs one signup round. *signup.Attempt implements it.
type Signer interface {
	Sign(ctx context.Context, p core.Participant, target core.Target) signup.Outcome
}

// Config controls polling behavior.
type Config struct {
	Interval    time.Duration
	MaxAttempts int       // 0 = unlimited
	StartAt     time.Time // zero = start immediately
	Once        bool      // one round, no interval wait
}

// Driver runs the signup sequence for a participant.
// A Driver holds no per-participant state and may be shared across goroutines
// if its Signer and Reporter are safe for concurrent use.
type Driver struct {
	signer   Signer
	reporter core.Reporter
	clock    core.Clock
	config   Config
}

func NewDriver(signer Signer, reporter core.Reporter, clock core.Clock, config Config) *Driver {
	if reporter == nil {
		reporter = core.NullReporter
	}
	if clock == nil {
		clock = core.RealClock{}
	}
	return &Driver{
		signer:   signer,
		reporter: reporter,
		clock:    clock,
		config:   config,
	}
}

// Run returns the final state. A nil error means the state is done.
// Otherwise the state is still pending and the error is
// ErrMaxAttemptsReached or the context's error.
func (d *Driver) Run(ctx context.Context, p core.Participant, target core.Target) (signup.State, error) {
	state := signup.Pending

	if err := d.waitForStart(ctx); err != nil {
		return state, err
	}

	if d.config.Once {
		return d.round(ctx, 1, p, target, state)
	}

	pacer := ratelimit.NewPacer(d.config.Interval)
	for round := 1; ; round++ {
		if d.config.MaxAttempts > 0 && round > d.config.MaxAttempts {
			return state, ErrMaxAttemptsReached
		}
		if err := pacer.Wait(ctx); err != nil {
			return state, err
		}

		var err error
		state, err = d.round(ctx, round, p, target, state)
		if err != nil || state.IsDone() {
			return state, err
		}
	}
}

func (d *Driver) round(ctx context.Context, n int, p core.Participant, target core.Target, state signup.State) (signup.State, error) {
	start := d.clock.Now()
	outcome := d.signer.Sign(ctx, p, target)

	// A request cut short by cancellation says nothing about the ride.
	if err := ctx.Err(); err != nil {
		return state, err
	}

	next := signup.Transition(state, outcome)
	var reason string
	if next.IsDone() {
		reason = next.Reason().String()
	}
	d.reporter.Report(core.Event{
		Email:     p.Email,
		Round:     n,
		Timestamp: start,
		Duration:  d.clock.Since(start),
		Outcome:   outcome.String(),
		State:     next.String(),
		Done:      next.IsDone(),
		Reason:    reason,
	})

	if !next.IsDone() && d.config.Once {
		return next, ErrMaxAttemptsReached
	}
	return next, nil
}

func (d *Driver) waitForStart(ctx context.Context) error {
	if d.config.StartAt.IsZero() {
		return nil
	}
	wait := d.config.StartAt.Sub(d.clock.Now())
	if wait <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-d.clock.After(wait):
		return nil
	}
}
