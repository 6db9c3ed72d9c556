// Package coordinator runs one signup sequence per participant.
package coordinator

import (
	"context"
	"fmt"
	"sync"

	"sattelclub/internal/core"
	"sattelclub/internal/signup"
)

// Sequencer runs a participant's signup sequence to completion.
// *poll.Driver implements it.
type Sequencer interface {
	Run(ctx context.Context, p core.Participant, target core.Target) (signup.State, error)
}

// Result is the final state of one participant's sequence. Err is nil when
// State is done.
type Result struct {
	Participant core.Participant
	State       signup.State
	Err         error
}

type Coordinator struct {
	sequencer Sequencer
	reporter  core.Reporter
	parallel  bool
}

// NewCoordinator returns a Coordinator. Sequences run one after another
// unless parallel is set.
func NewCoordinator(sequencer Sequencer, reporter core.Reporter, parallel bool) *Coordinator {
	if reporter == nil {
		reporter = core.NullReporter
	}
	return &Coordinator{
		sequencer: sequencer,
		reporter:  reporter,
		parallel:  parallel,
	}
}

// Run signs up every participant for target. Results are in participant
// order. Sequential runs stop starting new sequences once ctx is done;
// the remaining participants are returned pending with ctx's error.
func (c *Coordinator) Run(ctx context.Context, participants []core.Participant, target core.Target) []Result {
	results := make([]Result, len(participants))

	if !c.parallel {
		for i, p := range participants {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Participant: p, State: signup.Pending, Err: err}
				continue
			}
			results[i] = c.runOne(ctx, p, target)
		}
		return results
	}

	var wg sync.WaitGroup
	for i, p := range participants {
		wg.Add(1)
		go func(i int, p core.Participant) {
			defer wg.Done()
			results[i] = c.runOne(ctx, p, target)
		}(i, p)
	}
	wg.Wait()
	return results
}

func (c *Coordinator) runOne(ctx context.Context, p core.Participant, target core.Target) (result Result) {
	result.Participant = p
	defer c.recoverPanic(&result)

	state, err := c.sequencer.Run(ctx, p, target)
	result.State = state
	result.Err = err
	return result
}

// recoverPanic records a panic in a sequence as a failed result and reports it.
func (c *Coordinator) recoverPanic(result *Result) {
	if r := recover(); r != nil {
		result.State = signup.DoneError(fmt.Sprintf("panic: %v", r))
		result.Err = nil
		c.reporter.Report(core.Event{
			Email:   result.Participant.Email,
			Outcome: "panic",
			State:   result.State.String(),
			Done:    true,
			Reason:  result.State.Reason().String(),
		})
	}
}
