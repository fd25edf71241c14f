// Package scheduler provides the recurring-tick collaborator spec.md §6
// names as an external interest: "ability to register a recurring 25ms
// tick and cancel it." The core depends only on the Scheduler interface;
// this package supplies the one concrete implementation, grounded on the
// teacher's internal/utils.Timer wrapper (reset/drain idiom), generalized
// from a one-shot timer to a recurring ticker supervised by an errgroup
// goroutine, the way the teacher supervises its own connection run loops
// with golang.org/x/sync primitives.
package scheduler

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Scheduler registers a recurring callback and can cancel it. LossDetector
// depends on this interface (spec.md §6); it never constructs a ticker
// itself.
type Scheduler interface {
	// Start begins invoking fn every period until Stop is called. Start
	// must be called at most once per Scheduler instance.
	Start(period time.Duration, fn func(now time.Time))
	// Stop cancels the recurring tick. Safe to call multiple times.
	Stop()
}

// TickerScheduler is the default Scheduler, backed by a time.Ticker
// running on a supervised background goroutine.
type TickerScheduler struct {
	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewTickerScheduler returns a Scheduler that has not yet been started.
func NewTickerScheduler() *TickerScheduler {
	return &TickerScheduler{}
}

// Start implements Scheduler.
func (s *TickerScheduler) Start(period time.Duration, fn func(now time.Time)) {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	group, gctx := errgroup.WithContext(ctx)
	s.group = group
	group.Go(func() error {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case now := <-ticker.C:
				fn(now)
			}
		}
	})
}

// Stop implements Scheduler. It cancels the tick and waits for the
// background goroutine to exit, matching spec.md §5's "shutdown event
// cancels the tick and drops the timer handle; no pending callbacks may
// fire afterward."
func (s *TickerScheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	_ = s.group.Wait()
	s.cancel = nil
}
