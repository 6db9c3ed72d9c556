package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// FormatText writes the summary in human-readable format.
func FormatText(w io.Writer, s *Summary) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Sattelclub - Signup Results")
	fmt.Fprintln(w, "===========================")
	fmt.Fprintln(w, "")

	if len(s.Participants) == 0 {
		fmt.Fprintln(w, "No participants enabled")
		return
	}

	if s.RunID != "" {
		fmt.Fprintf(w, "Run:          %s\n", s.RunID)
	}
	fmt.Fprintf(w, "Duration:     %v\n", s.RunDuration.Round(time.Millisecond))
	fmt.Fprintf(w, "Rounds:       %d\n", s.TotalRounds)
	fmt.Fprintf(w, "Signed up:    %d / %d\n", s.Succeeded, len(s.Participants))
	if s.Full > 0 {
		fmt.Fprintf(w, "Ride full:    %d\n", s.Full)
	}
	if s.Failed > 0 {
		fmt.Fprintf(w, "Errors:       %d\n", s.Failed)
	}
	if s.Pending > 0 {
		fmt.Fprintf(w, "Pending:      %d\n", s.Pending)
	}
	if s.TotalRounds > 0 {
		fmt.Fprintf(w, "Latency:      avg=%s  p95=%s  max=%s\n",
			FormatDuration(s.Latency.Avg),
			FormatDuration(s.Latency.P95),
			FormatDuration(s.Latency.Max))
	}

	fmt.Fprintln(w, "")
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"", "Participant", "State", "Rounds", "Last outcome"})
	for _, ps := range s.Participants {
		t.AppendRow(table.Row{statusSymbol(ps), ps.Email, ps.State, ps.Rounds, ps.LastOutcome})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func statusSymbol(ps ParticipantSummary) string {
	switch {
	case !ps.Done:
		return "…"
	case ps.Reason == "success":
		return "✓"
	default:
		return "✗"
	}
}

// FormatJSON writes the summary in JSON format.
func FormatJSON(w io.Writer, s *Summary) {
	output := struct {
		RunID        string            `json:"runId,omitempty"`
		Duration     string            `json:"duration"`
		TotalRounds  int               `json:"totalRounds"`
		Succeeded    int               `json:"succeeded"`
		Full         int               `json:"full"`
		Failed       int               `json:"failed"`
		Pending      int               `json:"pending"`
		Latency      jsonLatency       `json:"latency"`
		Participants []jsonParticipant `json:"participants"`
	}{
		RunID:        s.RunID,
		Duration:     s.RunDuration.Round(time.Millisecond).String(),
		TotalRounds:  s.TotalRounds,
		Succeeded:    s.Succeeded,
		Full:         s.Full,
		Failed:       s.Failed,
		Pending:      s.Pending,
		Latency:      toJSONLatency(s.Latency),
		Participants: make([]jsonParticipant, 0, len(s.Participants)),
	}

	for _, ps := range s.Participants {
		jp := jsonParticipant{
			Email:       ps.Email,
			Rounds:      ps.Rounds,
			LastOutcome: ps.LastOutcome,
			State:       ps.State,
			Reason:      ps.Reason,
			Done:        ps.Done,
		}
		if !ps.LastAttempt.IsZero() {
			jp.LastAttempt = ps.LastAttempt.UTC().Format(time.RFC3339)
		}
		output.Participants = append(output.Participants, jp)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(output) // stdout errors are unrecoverable
}

type jsonLatency struct {
	Min string `json:"min"`
	Max string `json:"max"`
	Avg string `json:"avg"`
	P50 string `json:"p50"`
	P95 string `json:"p95"`
}

type jsonParticipant struct {
	Email       string `json:"email"`
	Rounds      int    `json:"rounds"`
	LastOutcome string `json:"lastOutcome,omitempty"`
	State       string `json:"state"`
	Reason      string `json:"reason,omitempty"`
	Done        bool   `json:"done"`
	LastAttempt string `json:"lastAttempt,omitempty"`
}

func toJSONLatency(d DurationMetrics) jsonLatency {
	return jsonLatency{
		Min: FormatDuration(d.Min),
		Max: FormatDuration(d.Max),
		Avg: FormatDuration(d.Avg),
		P50: FormatDuration(d.P50),
		P95: FormatDuration(d.P95),
	}
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}
