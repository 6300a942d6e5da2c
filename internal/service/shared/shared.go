// Package shared provides timing helpers for simulated round trips:
// delay resolution and cancellation-aware sleeps.
package shared

import (
	"context"
	"time"
)

// Delay returns override when it is positive, otherwise def.
// A negative override disables the wait entirely.
func Delay(override, def time.Duration) time.Duration {
	switch {
	case override > 0:
		return override
	case override < 0:
		return 0
	default:
		return def
	}
}

// SleepOrDone waits for the duration or returns early on context cancellation.
func SleepOrDone(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
