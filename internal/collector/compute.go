package collector

import (
	"sort"
	"time"

	"sattelclub/internal/core"
)

// Summary is the outcome of a run.
type Summary struct {
	RunID        string
	RunDuration  time.Duration
	TotalRounds  int
	Succeeded    int
	Full         int
	Failed       int
	Pending      int
	Latency      DurationMetrics
	Participants []ParticipantSummary
}

// ParticipantSummary is one participant's signup sequence.
type ParticipantSummary struct {
	Email       string
	Rounds      int
	LastOutcome string
	State       string
	Reason      string
	Done        bool
	LastAttempt time.Time
}

// DurationMetrics summarizes request latencies.
type DurationMetrics struct {
	Min time.Duration
	Max time.Duration
	Avg time.Duration
	P50 time.Duration
	P95 time.Duration
}

// AllSucceeded reports whether every participant ended in success.
func (s *Summary) AllSucceeded() bool {
	return s.Succeeded == len(s.Participants)
}

// ComputeSummary builds a Summary from events. Pure function, no side
// effects. Participants without events are reported as pending with zero
// rounds. Events for unknown emails are ignored.
func ComputeSummary(participants []core.Participant, events []core.Event, runDuration time.Duration) *Summary {
	s := &Summary{
		RunDuration:  runDuration,
		Participants: make([]ParticipantSummary, len(participants)),
	}

	index := make(map[string]int, len(participants))
	for i, p := range participants {
		index[p.Email] = i
		s.Participants[i] = ParticipantSummary{Email: p.Email, State: "pending"}
	}

	durations := make([]time.Duration, 0, len(events))
	for _, e := range events {
		i, ok := index[e.Email]
		if !ok {
			continue
		}
		s.TotalRounds++
		durations = append(durations, e.Duration)

		ps := &s.Participants[i]
		if e.Round < ps.Rounds {
			continue
		}
		ps.Rounds = e.Round
		ps.LastOutcome = e.Outcome
		ps.State = e.State
		ps.Reason = e.Reason
		ps.Done = e.Done
		ps.LastAttempt = e.Timestamp
	}

	for _, ps := range s.Participants {
		switch {
		case !ps.Done:
			s.Pending++
		case ps.Reason == "success":
			s.Succeeded++
		case ps.Reason == "full":
			s.Full++
		default:
			s.Failed++
		}
	}

	s.Latency = ComputeDurationMetrics(durations)
	return s
}

// ComputeDurationMetrics computes latency statistics. Pure function.
func ComputeDurationMetrics(durations []time.Duration) DurationMetrics {
	if len(durations) == 0 {
		return DurationMetrics{}
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}

	return DurationMetrics{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		Avg: total / time.Duration(len(sorted)),
		P50: ComputePercentile(sorted, 0.50),
		P95: ComputePercentile(sorted, 0.95),
	}
}

// ComputePercentile returns the nearest-rank percentile of sorted durations.
func ComputePercentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted))*p+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
