package poll

import (
	"context"
	"math"
	"time"
)

// Timer yields the wait between two polls, doubling it on every Increase up to MaxRetry times.
type Timer struct {
	BaseDuration time.Duration
	RetryCount   int
	MaxRetry     int
}

func (p *Timer) Duration() time.Duration {
	return p.BaseDuration * time.Duration(
		math.Pow(2, float64(p.RetryCount)),
	)
}

func (p *Timer) Reset() {
	p.RetryCount = 0
}

func (p *Timer) Increase() {
	if p.MaxRetry > 0 && p.RetryCount < p.MaxRetry {
		p.RetryCount++
	}
}

// Wait blocks for the current duration or until the context is done.
func (p *Timer) Wait(ctx context.Context) error {
	t := time.NewTimer(p.Duration())
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
