// Package progress prints operator-facing status lines while a run is in
// flight.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"sattelclub/internal/collector"
	"sattelclub/internal/core"
)

// Progress writes round lines and a periodic status line to stderr.
// It implements core.Reporter.
type Progress struct {
	startTime    time.Time
	collector    *collector.Collector
	participants []core.Participant
	ticker       *time.Ticker
	stopCh       chan struct{}
	stopped      atomic.Bool
	quiet        bool
	output       io.Writer
	mu           sync.Mutex
}

var _ core.Reporter = (*Progress)(nil)

func NewProgress(c *collector.Collector, participants []core.Participant, quiet bool) *Progress {
	return &Progress{
		collector:    c,
		participants: participants,
		quiet:        quiet,
		output:       os.Stderr,
	}
}

func (p *Progress) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = w
}

// Start prints a status line every interval until Stop is called.
// A non-positive interval or a nil collector disables the status line.
func (p *Progress) Start(interval time.Duration) {
	if p.quiet || interval <= 0 || p.collector == nil {
		return
	}
	p.startTime = time.Now()
	p.stopCh = make(chan struct{})
	p.ticker = time.NewTicker(interval)
	go p.run()
}

func (p *Progress) run() {
	for {
		select {
		case <-p.stopCh:
			return
		case <-p.ticker.C:
			p.printProgress()
		}
	}
}

func (p *Progress) printProgress() {
	s := p.collector.Compute(p.participants)
	elapsed := time.Since(p.startTime).Round(time.Second)
	mins := int(elapsed.Minutes())
	secs := int(elapsed.Seconds()) % 60
	p.mu.Lock()
	fmt.Fprintf(p.output, "\033[K[%02d:%02d] Rounds: %d | Signed up: %d/%d | Pending: %d\r",
		mins, secs, s.TotalRounds, s.Succeeded, len(s.Participants), s.Pending)
	p.mu.Unlock()
}

func (p *Progress) Stop() {
	if p.quiet || p.stopped.Swap(true) {
		return
	}
	if p.ticker != nil {
		p.ticker.Stop()
	}
	if p.stopCh != nil {
		close(p.stopCh)
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\033[K")
	p.mu.Unlock()
}

// Report prints one line per signup round.
func (p *Progress) Report(e core.Event) {
	p.Printf("[%s] round %d: %s -> %s", e.Email, e.Round, e.Outcome, e.State)
}

func (p *Progress) Print(message string) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\033[K%s\n", message)
	p.mu.Unlock()
}

func (p *Progress) Printf(format string, args ...interface{}) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\033[K"+format+"\n", args...)
	p.mu.Unlock()
}
