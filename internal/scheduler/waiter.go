// Package scheduler emits note pairs on a drift-free cadence.
package scheduler

import (
	"context"
	"time"

	"github.com/leandrodaf/midiprobe/sdk/contracts"
)

// Wait tiers: beyond CoarseThreshold the waiter blocks until CoarseMargin
// before the deadline; beyond FineThreshold it blocks for half the remaining
// time; below that it polls the clock.
const (
	CoarseThreshold = 2 * time.Millisecond
	CoarseMargin    = 500 * time.Microsecond
	FineThreshold   = 100 * time.Microsecond
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration)

// Waiter blocks until host-time deadlines, trading CPU for precision only in
// the last fraction of a millisecond.
type Waiter struct {
	clock contracts.Clock
	sleep SleepFunc
	timer *time.Timer
}

// NewWaiter returns a waiter on clock. A nil sleep uses a reusable runtime timer.
func NewWaiter(clock contracts.Clock, sleep SleepFunc) *Waiter {
	w := &Waiter{clock: clock, sleep: sleep}
	if w.sleep == nil {
		w.sleep = w.timerSleep
	}
	return w
}

// SleepUntil returns nil once the clock reaches deadline, or ctx.Err() if the
// context ends first.
func (w *Waiter) SleepUntil(ctx context.Context, deadline contracts.HostTime) error {
	tb := w.clock.Timebase()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		now := w.clock.Now()
		if now >= deadline {
			return nil
		}
		remaining := time.Duration(tb.ToNanos(deadline - now))
		switch {
		case remaining > CoarseThreshold:
			w.sleep(ctx, remaining-CoarseMargin)
		case remaining > FineThreshold:
			w.sleep(ctx, remaining/2)
		}
	}
}

func (w *Waiter) timerSleep(ctx context.Context, d time.Duration) {
	if w.timer == nil {
		w.timer = time.NewTimer(d)
	} else {
		w.timer.Reset(d)
	}
	select {
	case <-w.timer.C:
	case <-ctx.Done():
		if !w.timer.Stop() {
			select {
			case <-w.timer.C:
			default:
			}
		}
	}
}
