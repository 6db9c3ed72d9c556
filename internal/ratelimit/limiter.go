// Package ratelimit paces polling rounds.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer lets one round through per interval, measured start to start.
type Pacer struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewPacer returns a pacer whose first Wait already blocks for a full
// interval. A non-positive interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	limiter.Allow() // spend the initial burst token
	return &Pacer{limiter: limiter, interval: interval}
}

// Wait blocks until the next round may start or ctx is done. It returns
// ctx.Err() only once ctx is actually done, even when the next round falls
// after ctx's deadline.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r := p.limiter.Reserve()
	delay := r.Delay()
	if delay == 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

func (p *Pacer) Interval() time.Duration {
	return p.interval
}
