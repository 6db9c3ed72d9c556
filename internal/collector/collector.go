// Package collector aggregates signup rounds and renders the run summary.
package collector

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"sattelclub/internal/core"
)

// Collector aggregates events from signup sequences.
type Collector struct {
	runID     string
	events    []core.Event
	ch        chan core.Event
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
	startTime time.Time
	endTime   time.Time
}

// NewCollector creates a new Collector and starts its collection goroutine.
func NewCollector() *Collector {
	c := &Collector{
		runID:     uuid.NewString(),
		events:    make([]core.Event, 0),
		ch:        make(chan core.Event, 100),
		done:      make(chan struct{}),
		startTime: time.Now(),
	}
	go c.collect()
	return c
}

func (c *Collector) collect() {
	for event := range c.ch {
		c.mu.Lock()
		c.events = append(c.events, event)
		c.mu.Unlock()
	}
	close(c.done)
}

// Report sends an event to the collector. Thread-safe. Must not be called
// after Close.
func (c *Collector) Report(event core.Event) {
	c.ch <- event
}

// Close stops accepting events and waits for queued ones to be stored.
func (c *Collector) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.endTime = time.Now()
		c.mu.Unlock()
		close(c.ch)
		<-c.done
	})
}

// RunID identifies this run in summaries.
func (c *Collector) RunID() string {
	return c.runID
}

// Events returns a copy of collected events.
func (c *Collector) Events() []core.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]core.Event, len(c.events))
	copy(result, c.events)
	return result
}

// Duration returns the run duration.
// If the collector is closed, returns the duration from start to end.
// If still running, returns the duration from start to now.
func (c *Collector) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.endTime.IsZero() {
		return c.endTime.Sub(c.startTime)
	}
	return time.Since(c.startTime)
}

// Compute summarizes the events collected so far for participants.
func (c *Collector) Compute(participants []core.Participant) *Summary {
	s := ComputeSummary(participants, c.Events(), c.Duration())
	s.RunID = c.runID
	return s
}
