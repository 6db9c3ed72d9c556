package poll

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sattelclub/internal/core"
	"sattelclub/internal/signup"
)

// scriptedSigner returns its outcomes in order, repeating the last one.
type scriptedSigner struct {
	mu       sync.Mutex
	outcomes []signup.Outcome
	calls    int
	onSign   func(calls int)
}

func (s *scriptedSigner) Sign(ctx context.Context, p core.Participant, target core.Target) signup.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.onSign != nil {
		s.onSign(s.calls)
	}
	i := s.calls - 1
	if i >= len(s.outcomes) {
		i = len(s.outcomes) - 1
	}
	return s.outcomes[i]
}

type mockReporter struct {
	events []core.Event
}

func (m *mockReporter) Report(e core.Event) {
	m.events = append(m.events, e)
}

var (
	notFound = signup.Outcome{Kind: signup.KnownFailure, Failure: signup.RideNotFound}
	success  = signup.Outcome{Kind: signup.Success}
	full     = signup.Outcome{Kind: signup.KnownFailure, Failure: signup.RideFull}

	ada    = core.Participant{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Enabled: true}
	target = core.Target{ServiceURL: "http://example.invalid", ActivityID: "abc123", Date: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)}
)

func TestDriver_PollsUntilDone(t *testing.T) {
	signer := &scriptedSigner{outcomes: []signup.Outcome{notFound, notFound, success}}
	reporter := &mockReporter{}
	driver := NewDriver(signer, reporter, nil, Config{Interval: time.Millisecond})

	state, err := driver.Run(context.Background(), ada, target)

	require.NoError(t, err)
	require.Equal(t, signup.DoneSuccess(), state)
	require.Equal(t, 3, signer.calls)
	require.Len(t, reporter.events, 3)

	require.Equal(t, 1, reporter.events[0].Round)
	require.Equal(t, "ride not found", reporter.events[0].Outcome)
	require.Equal(t, "pending", reporter.events[0].State)
	require.False(t, reporter.events[0].Done)
	require.Empty(t, reporter.events[0].Reason)

	last := reporter.events[2]
	require.Equal(t, 3, last.Round)
	require.Equal(t, "ada@example.com", last.Email)
	require.True(t, last.Done)
	require.Equal(t, "success", last.Reason)
}

func TestDriver_StopsOnFirstTerminalOutcome(t *testing.T) {
	signer := &scriptedSigner{outcomes: []signup.Outcome{full, success}}
	driver := NewDriver(signer, nil, nil, Config{Interval: time.Millisecond})

	state, err := driver.Run(context.Background(), ada, target)

	require.NoError(t, err)
	require.Equal(t, signup.DoneFull(), state)
	require.Equal(t, 1, signer.calls)
}

func TestDriver_MaxAttempts(t *testing.T) {
	signer := &scriptedSigner{outcomes: []signup.Outcome{notFound}}
	driver := NewDriver(signer, nil, nil, Config{Interval: time.Millisecond, MaxAttempts: 4})

	state, err := driver.Run(context.Background(), ada, target)

	require.ErrorIs(t, err, ErrMaxAttemptsReached)
	require.Equal(t, signup.Pending, state)
	require.Equal(t, 4, signer.calls)
}

func TestDriver_Once(t *testing.T) {
	signer := &scriptedSigner{outcomes: []signup.Outcome{notFound, success}}
	reporter := &mockReporter{}
	driver := NewDriver(signer, reporter, nil, Config{Interval: time.Hour, Once: true})

	start := time.Now()
	state, err := driver.Run(context.Background(), ada, target)

	require.ErrorIs(t, err, ErrMaxAttemptsReached)
	require.Equal(t, signup.Pending, state)
	require.Equal(t, 1, signer.calls)
	require.Len(t, reporter.events, 1)
	require.Less(t, time.Since(start), time.Second, "single-shot mode must not wait for the interval")
}

func TestDriver_OnceDone(t *testing.T) {
	signer := &scriptedSigner{outcomes: []signup.Outcome{success}}
	driver := NewDriver(signer, nil, nil, Config{Once: true})

	state, err := driver.Run(context.Background(), ada, target)

	require.NoError(t, err)
	require.Equal(t, signup.DoneSuccess(), state)
}

func TestDriver_ContextCancelledBetweenRounds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	signer := &scriptedSigner{outcomes: []signup.Outcome{notFound}}
	signer.onSign = func(calls int) {
		if calls == 2 {
			cancel()
		}
	}
	driver := NewDriver(signer, nil, nil, Config{Interval: time.Millisecond})

	state, err := driver.Run(ctx, ada, target)

	require.True(t, errors.Is(err, context.Canceled), "got %v", err)
	require.Equal(t, signup.Pending, state)
	require.Equal(t, 2, signer.calls)
}

func TestDriver_CancelledRequestDoesNotTransition(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	transportFailure := signup.Outcome{Kind: signup.TransportFailure, Detail: "context canceled"}
	signer := &scriptedSigner{outcomes: []signup.Outcome{transportFailure}}
	signer.onSign = func(int) { cancel() }
	reporter := &mockReporter{}
	driver := NewDriver(signer, reporter, nil, Config{Once: true})

	state, err := driver.Run(ctx, ada, target)

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, signup.Pending, state)
	require.Empty(t, reporter.events)
}

func TestDriver_WaitsForStart(t *testing.T) {
	now := time.Date(2024, 3, 13, 17, 0, 0, 0, time.UTC)
	clock := core.NewFakeClock(now)
	startAt := now.Add(time.Hour)

	var signedAt time.Time
	signer := &scriptedSigner{outcomes: []signup.Outcome{success}}
	signer.onSign = func(int) { signedAt = clock.Now() }
	driver := NewDriver(signer, nil, clock, Config{Once: true, StartAt: startAt})

	state, err := driver.Run(context.Background(), ada, target)

	require.NoError(t, err)
	require.True(t, state.IsDone())
	require.False(t, signedAt.Before(startAt), "signed at %v, before start %v", signedAt, startAt)
}

func TestDriver_StartInPastDoesNotWait(t *testing.T) {
	now := time.Date(2024, 3, 13, 19, 0, 0, 0, time.UTC)
	clock := core.NewFakeClock(now)
	signer := &scriptedSigner{outcomes: []signup.Outcome{success}}
	driver := NewDriver(signer, nil, clock, Config{Once: true, StartAt: now.Add(-time.Hour)})

	_, err := driver.Run(context.Background(), ada, target)

	require.NoError(t, err)
	require.Equal(t, now, clock.Now())
}

func TestDriver_WaitForStartCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	signer := &scriptedSigner{outcomes: []signup.Outcome{success}}
	// The real clock would block for a day; cancellation must win.
	driver := NewDriver(signer, nil, core.RealClock{}, Config{Once: true, StartAt: time.Now().Add(24 * time.Hour)})

	state, err := driver.Run(ctx, ada, target)

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, signup.Pending, state)
	require.Equal(t, 0, signer.calls)
}

func TestDriver_DeadlineShorterThanInterval(t *testing.T) {
	signer := &scriptedSigner{outcomes: []signup.Outcome{notFound}}
	driver := NewDriver(signer, nil, nil, Config{Interval: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	state, err := driver.Run(ctx, ada, target)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, ctx.Err(), err)
	require.Equal(t, signup.Pending, state)
	require.Zero(t, signer.calls)
	require.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestDriver_DeadlineAllowsLastRound(t *testing.T) {
	signer := &scriptedSigner{outcomes: []signup.Outcome{notFound}}
	reporter := &mockReporter{}
	driver := NewDriver(signer, reporter, nil, Config{Interval: 50 * time.Millisecond})

	// Rounds fall at about 50ms and 100ms; the deadline sits between the
	// second and third.
	ctx, cancel := context.WithTimeout(context.Background(), 130*time.Millisecond)
	defer cancel()

	state, err := driver.Run(ctx, ada, target)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, signup.Pending, state)
	require.Len(t, reporter.events, 2)
}
