package common

import (
	"context"
	"time"
)

// Waiter blocks between slices. Wait returns early with the context error when
// the context is cancelled.
type Waiter interface {
	Wait(ctx context.Context, d time.Duration) error
}

// TimerWaiter waits on a real timer
type TimerWaiter struct{}

// Wait implements Waiter
func (TimerWaiter) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoWait skips every wait while still honouring cancellation
type NoWait struct{}

// Wait implements Waiter
func (NoWait) Wait(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}
